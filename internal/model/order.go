package model

// Order tal como la devuelve el servicio de órdenes. Solo lectura.
type Order struct {
	ID               string           `json:"id"`
	Code             string           `json:"code"`
	ShippingMethodID string           `json:"shippingMethodId"`
	Customer         Customer         `json:"customer"`
	ShippingAddress  Address          `json:"shippingAddress"`
	BillingAddress   Address          `json:"billingAddress"`
	Lines            []OrderLine      `json:"lines"`
	CustomFields     OrderCustomField `json:"customFields"`
}

type OrderLine struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

type OrderCustomField struct {
	// Punto de retiro elegido por el cliente (locker)
	PickupPointID string `json:"pickupPointId"`
}

type Customer struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	EmailAddress string `json:"emailAddress"`
	PhoneNumber  string `json:"phoneNumber"`
}

type Address struct {
	FullName     string `json:"fullName"`
	Company      string `json:"company"`
	StreetLine1  string `json:"streetLine1"`
	StreetLine2  string `json:"streetLine2"`
	City         string `json:"city"`
	PostalCode   string `json:"postalCode"`
	Province     string `json:"province"`
	CountryCode  string `json:"countryCode"`
	PhoneNumber  string `json:"phoneNumber"`
	EmailAddress string `json:"emailAddress"`
}
