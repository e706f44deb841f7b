package carrier

import "github.com/shopspring/decimal"

// Estados del envío remoto que importan al orquestador
const (
	StatusCreated       = "created"
	StatusOfferSelected = "offer_selected"
	StatusBought        = "bought"
)

type Shipment struct {
	ID             int64   `json:"id"`
	Status         string  `json:"status"`
	TrackingNumber string  `json:"tracking_number,omitempty"`
	Service        string  `json:"service,omitempty"`
	Offers         []Offer `json:"offers"`
}

type Offer struct {
	ID       int64           `json:"id"`
	Status   string          `json:"status"`
	Rate     decimal.Decimal `json:"rate"`
	Currency string          `json:"currency,omitempty"`
}

// HasBoughtOffer indica si alguna oferta ya quedó comprada.
func (s *Shipment) HasBoughtOffer() bool {
	for _, o := range s.Offers {
		if o.Status == StatusBought {
			return true
		}
	}
	return false
}

type CreateShipmentRequest struct {
	Receiver         Receiver          `json:"receiver"`
	Parcels          Parcel            `json:"parcels"`
	Service          string            `json:"service"`
	CustomAttributes *CustomAttributes `json:"custom_attributes,omitempty"`
}

type Receiver struct {
	Name      string  `json:"name,omitempty"`
	FirstName string  `json:"first_name,omitempty"`
	LastName  string  `json:"last_name,omitempty"`
	Company   string  `json:"company_name,omitempty"`
	Email     string  `json:"email"`
	Phone     string  `json:"phone"`
	Address   Address `json:"address"`
}

type Address struct {
	Street      string `json:"street"`
	Line2       string `json:"building_number,omitempty"`
	City        string `json:"city"`
	PostCode    string `json:"post_code"`
	CountryCode string `json:"country_code"`
}

// Parcel usa una plantilla de tamaño del carrier ("small", "medium", "large").
type Parcel struct {
	Template string `json:"template"`
}

type CustomAttributes struct {
	TargetPoint string `json:"target_point,omitempty"`
}

type buyRequest struct {
	OfferID int64 `json:"offer_id"`
}
