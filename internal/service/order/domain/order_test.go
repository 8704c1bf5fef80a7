package domain

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fullAddress = Address{Street: "Jl. Sudirman 1", City: "Jakarta", ZipCode: "10210", Country: "ID"}

func validDraft() *OrderDraft {
	return &OrderDraft{
		UserID:          1,
		Lines:           []LineRequest{{GameID: 1, Quantity: 2, Format: "physical"}},
		DeliveryMode:    "physical",
		PaymentMethod:   "bank_transfer",
		ShippingAddress: fullAddress,
	}
}

func TestOrderDraftValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(d *OrderDraft)
		field  string
	}{
		{"no lines", func(d *OrderDraft) { d.Lines = nil }, "games"},
		{"zero quantity", func(d *OrderDraft) { d.Lines[0].Quantity = 0 }, "games[0].quantity"},
		{"quantity above cap", func(d *OrderDraft) { d.Lines[0].Quantity = math.MaxInt64 }, "games[0].quantity"},
		{"duplicate lines above cap", func(d *OrderDraft) {
			d.Lines[0].Quantity = MaxLineQuantity
			d.Lines = append(d.Lines, LineRequest{GameID: 1, Quantity: 2, Format: "physical"})
		}, "games[1].quantity"},
		{"missing game id", func(d *OrderDraft) { d.Lines[0].GameID = 0 }, "games[0].gameId"},
		{"unknown format", func(d *OrderDraft) { d.Lines[0].Format = "fisik" }, "games[0].type"},
		{"unknown delivery", func(d *OrderDraft) { d.DeliveryMode = "drone" }, "deliveryType"},
		{"partial address", func(d *OrderDraft) { d.ShippingAddress.ZipCode = "" }, "zipCode"},
		{"digital without account", func(d *OrderDraft) {
			d.DeliveryMode = "digital"
			d.Lines[0].Format = "digital"
		}, "platformAccountId"},
		{"both without account", func(d *OrderDraft) { d.DeliveryMode = "both" }, "platformAccountId"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			d := validDraft()
			c.mutate(d)
			err := d.Validate()
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, c.field, vErr.Field)
		})
	}

	assert.NoError(t, validDraft().Validate())
}

func TestOrderDraftPhysicalDemandSumsLines(t *testing.T) {
	d := &OrderDraft{Lines: []LineRequest{
		{GameID: 1, Quantity: 2, Format: "physical"},
		{GameID: 2, Quantity: 1, Format: "digital"},
		{GameID: 1, Quantity: 3, Format: "physical"},
	}}
	assert.Equal(t, map[uint]int{1: 5}, d.PhysicalDemand())
	assert.Equal(t, []uint{1, 2}, d.GameIDs())
}

func TestNewOrderComputesTotals(t *testing.T) {
	games := map[uint]*Game{
		1: {ID: 1, Title: "Elden Ring", Price: decimal.RequireFromString("100000"), Currency: "IDR", HasPhysical: true, ImageURL: "er.png", Platform: "PS5"},
		2: {ID: 2, Title: "Hades", Price: decimal.RequireFromString("55000.50"), Currency: "IDR", HasDigital: true},
	}
	d := &OrderDraft{
		UserID: 9,
		Lines: []LineRequest{
			{GameID: 1, Quantity: 2, Format: "physical"},
			{GameID: 2, Quantity: 3, Format: "digital"},
		},
		DeliveryMode:      "both",
		ShippingAddress:   fullAddress,
		PlatformAccountID: "steam-42",
	}

	o, err := NewOrder(d, games)
	require.NoError(t, err)

	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, "IDR", o.Currency)
	require.Len(t, o.Lines, 2)
	assert.True(t, o.Lines[0].Subtotal.Equal(decimal.RequireFromString("200000")))
	assert.True(t, o.Lines[1].Subtotal.Equal(decimal.RequireFromString("165001.50")))

	sum := decimal.Zero
	for _, l := range o.Lines {
		sum = sum.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	assert.True(t, o.TotalAmount.Equal(sum), "total %s != %s", o.TotalAmount, sum)
	assert.Equal(t, "Elden Ring", o.Lines[0].GameTitle)
	assert.Equal(t, "er.png", o.Lines[0].GameImage)
	require.NotNil(t, o.ShippingAddress)
	assert.Equal(t, "steam-42", o.PlatformAccountID)
}

func TestNewOrderRejectsMixedCurrencies(t *testing.T) {
	games := map[uint]*Game{
		1: {ID: 1, Price: decimal.NewFromInt(10), Currency: "IDR", HasDigital: true},
		2: {ID: 2, Price: decimal.NewFromInt(10), Currency: "USD", HasDigital: true},
	}
	d := &OrderDraft{
		Lines:        []LineRequest{{GameID: 1, Quantity: 1, Format: "digital"}, {GameID: 2, Quantity: 1, Format: "digital"}},
		DeliveryMode: "digital",
	}
	_, err := NewOrder(d, games)
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestOrderDraftCapsOnlyPhysicalSums(t *testing.T) {
	d := validDraft()
	d.DeliveryMode = "both"
	d.PlatformAccountID = "steam-42"
	d.Lines = []LineRequest{
		{GameID: 1, Quantity: MaxLineQuantity, Format: "physical"},
		{GameID: 1, Quantity: MaxLineQuantity, Format: "digital"},
	}
	assert.NoError(t, d.Validate())
}

func TestNewOrderRejectsTotalAboveMaximum(t *testing.T) {
	games := map[uint]*Game{
		1: {ID: 1, Price: decimal.RequireFromString("9999999999.99"), Currency: "IDR", HasDigital: true},
	}
	d := &OrderDraft{
		Lines:        []LineRequest{{GameID: 1, Quantity: MaxLineQuantity, Format: "digital"}},
		DeliveryMode: "digital",
	}
	_, err := NewOrder(d, games)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "games", vErr.Field)
}

func TestOrderApplyUpdate(t *testing.T) {
	physical := func() *Order {
		addr := fullAddress
		return &Order{ID: 3, Status: StatusPending, DeliveryMode: DeliveryPhysical, PaymentMethod: "cod", ShippingAddress: &addr}
	}

	t.Run("payment method always allowed", func(t *testing.T) {
		o := physical()
		require.NoError(t, o.ApplyUpdate(OrderUpdate{PaymentMethod: "ewallet"}))
		assert.Equal(t, "ewallet", o.PaymentMethod)
	})

	t.Run("partial address rejected", func(t *testing.T) {
		o := physical()
		err := o.ApplyUpdate(OrderUpdate{ShippingAddress: Address{City: "Bandung"}})
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "street", vErr.Field)
		assert.Equal(t, "Jakarta", o.ShippingAddress.City)
	})

	t.Run("full address replaced", func(t *testing.T) {
		o := physical()
		next := Address{Street: "Jl. Braga 5", City: "Bandung", ZipCode: "40111", Country: "ID"}
		require.NoError(t, o.ApplyUpdate(OrderUpdate{ShippingAddress: next}))
		assert.Equal(t, next, *o.ShippingAddress)
	})

	t.Run("platform account ignored for physical order", func(t *testing.T) {
		o := physical()
		err := o.ApplyUpdate(OrderUpdate{PlatformAccountID: "steam-1"})
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Empty(t, o.PlatformAccountID)
	})

	t.Run("not pending", func(t *testing.T) {
		o := physical()
		o.Status = StatusCompleted
		err := o.ApplyUpdate(OrderUpdate{PaymentMethod: "ewallet"})
		var conflict *StateConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, "cod", o.PaymentMethod)
	})
}

func TestRestockDemand(t *testing.T) {
	o := &Order{Lines: []OrderLine{
		{GameID: 1, Quantity: 3, Format: FormatPhysical},
		{GameID: 2, Quantity: 1, Format: FormatDigital},
		{GameID: 1, Quantity: 1, Format: FormatPhysical},
	}}
	assert.Equal(t, map[uint]int{1: 4}, o.RestockDemand())
}

func TestGameSupportsAndValidate(t *testing.T) {
	g := &Game{Title: "Tetris", Price: decimal.NewFromInt(1), HasDigital: true}
	assert.True(t, g.Supports(FormatDigital))
	assert.False(t, g.Supports(FormatPhysical))
	require.NoError(t, g.Validate())
	assert.Equal(t, DefaultCurrency, g.Currency)

	g.HasDigital = false
	assert.Error(t, g.Validate())
}
