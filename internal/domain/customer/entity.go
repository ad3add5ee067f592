// internal/domain/customer/entity.go
package customer

// Region is a country or state reference as the commerce platform returns it
type Region struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Address is a billing or shipping address
type Address struct {
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	StreetAddress1 string  `json:"street_address_1"`
	StreetAddress2 string  `json:"street_address_2"`
	Locality       string  `json:"locality"`
	PostalCode     string  `json:"postal_code"`
	Phone          string  `json:"phone"`
	Country        *Region `json:"country,omitempty"`
	Region         *Region `json:"region,omitempty"`
}

// Record is a customer as listed by the commerce platform
type Record struct {
	ID              string
	FirstName       string
	LastName        string
	Email           string
	Tags            []string
	BillingAddress  *Address
	ShippingAddress *Address
}

// Profile is the resolved customer a session binds to.
// Exist is false when no customer carries the scanned code.
type Profile struct {
	Exist       bool     `json:"exist"`
	ID          string   `json:"id,omitempty"`
	Code        string   `json:"code,omitempty"`
	FullName    string   `json:"full_name,omitempty"`
	FirstName   string   `json:"first_name,omitempty"`
	LastName    string   `json:"last_name,omitempty"`
	Email       string   `json:"email,omitempty"`
	IBAN        string   `json:"iban,omitempty"`
	BillAddress *Address `json:"bill_address,omitempty"`
	ShipAddress *Address `json:"ship_address,omitempty"`
}

// NotFound is the negative lookup result
func NotFound() Profile {
	return Profile{Exist: false}
}

// Clone returns an independent copy of p
func (p Profile) Clone() Profile {
	out := p
	out.BillAddress = cloneAddress(p.BillAddress)
	out.ShipAddress = cloneAddress(p.ShipAddress)
	return out
}

func cloneAddress(a *Address) *Address {
	if a == nil {
		return nil
	}
	c := *a
	if a.Country != nil {
		country := *a.Country
		c.Country = &country
	}
	if a.Region != nil {
		region := *a.Region
		c.Region = &region
	}
	return &c
}
