// internal/infrastructure/ofn/customer_form.go
package ofn

import (
	"net/url"

	"github.com/your-org/nanostore-kiosk/internal/domain/customer"
)

// Country and state ids of the German OFN instance
var (
	countryIDs = map[string]string{
		"DE": "155",
	}
	stateIDs = map[string]string{
		"BB": "52",
		"BE": "53",
		"BW": "54",
		"BY": "55",
		"HB": "56",
		"HE": "57",
		"HH": "58",
		"MV": "59",
		"NI": "60",
		"NW": "61",
		"RP": "62",
		"SH": "63",
		"SL": "64",
		"SN": "65",
		"ST": "66",
		"TH": "67",
	}
)

func countryID(r *customer.Region) string {
	if r == nil {
		return ""
	}
	return countryIDs[r.Code]
}

func stateID(r *customer.Region) string {
	if r == nil {
		return ""
	}
	return stateIDs[r.Code]
}

// customerForm builds the admin customer form. The shipping address falls
// back to the billing address.
func customerForm(profile *customer.Profile) url.Values {
	bill := profile.BillAddress
	if bill == nil {
		bill = &customer.Address{}
	}
	ship := profile.ShipAddress
	if ship == nil {
		ship = bill
	}

	form := url.Values{
		"_method":            {"patch"},
		"order[email]":       {profile.Email},
		"order[use_billing]": {"1"},
		"order[customer_id]": {profile.ID},
		"button":             {""},
	}
	addAddress(form, "bill_address_attributes", bill)
	addAddress(form, "ship_address_attributes", ship)
	return form
}

func addAddress(form url.Values, prefix string, a *customer.Address) {
	field := func(name string) string {
		return "order[" + prefix + "][" + name + "]"
	}
	form.Set(field("firstname"), a.FirstName)
	form.Set(field("lastname"), a.LastName)
	form.Set(field("address1"), a.StreetAddress1)
	form.Set(field("address2"), a.StreetAddress2)
	form.Set(field("city"), a.Locality)
	form.Set(field("zipcode"), a.PostalCode)
	form.Set(field("country_id"), countryID(a.Country))
	form.Set(field("state_id"), stateID(a.Region))
	form.Set(field("phone"), a.Phone)
}
