package shipping

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Location is the simplified coordinates block of an Office.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
}

// Office is the simplified client-facing shape of a vendor delivery point.
type Office struct {
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	Address    string    `json:"address"`
	City       string    `json:"city"`
	CityCode   int       `json:"city_code"`
	PostalCode string    `json:"postal_code"`
	WorkTime   string    `json:"work_time"`
	Phone      string    `json:"phone"`
	Location   *Location `json:"location,omitempty"`
}

// deliveryPoint mirrors the vendor record fields the relay consumes.
type deliveryPoint struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	AddressFull string `json:"address_full"`
	WorkTime    string `json:"work_time"`
	Phones      []struct {
		Number string `json:"number"`
	} `json:"phones"`
	Location *struct {
		Latitude    float64 `json:"latitude"`
		Longitude   float64 `json:"longitude"`
		Address     string  `json:"address"`
		AddressFull string  `json:"address_full"`
		City        string  `json:"city"`
		CityCode    int     `json:"city_code"`
		PostalCode  string  `json:"postal_code"`
	} `json:"location"`
}

// NormalizeList flattens the vendor's two response shapes into one list:
// a bare JSON array passes through, an object's "items" field is extracted,
// and anything else is an empty list. Malformed JSON is an error, never an
// empty result disguised as success.
func NormalizeList(body []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return []json.RawMessage{}, nil
	}

	switch trimmed[0] {
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("decode vendor list: %w", err)
		}
		if list == nil {
			list = []json.RawMessage{}
		}
		return list, nil
	case '{':
		var wrapper struct {
			Items []json.RawMessage `json:"items"`
		}
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return nil, fmt.Errorf("decode vendor object: %w", err)
		}
		if wrapper.Items == nil {
			return []json.RawMessage{}, nil
		}
		return wrapper.Items, nil
	default:
		return []json.RawMessage{}, nil
	}
}

// MapOffices converts vendor delivery-point records to the simplified
// Office shape.
func MapOffices(records []json.RawMessage) ([]Office, error) {
	offices := make([]Office, 0, len(records))
	for _, record := range records {
		office, err := mapOffice(record)
		if err != nil {
			return nil, err
		}
		offices = append(offices, office)
	}
	return offices, nil
}

func mapOffice(record json.RawMessage) (Office, error) {
	var dp deliveryPoint
	if err := json.Unmarshal(record, &dp); err != nil {
		return Office{}, fmt.Errorf("decode delivery point: %w", err)
	}

	office := Office{
		Code:     dp.Code,
		Name:     dp.Name,
		Address:  dp.AddressFull,
		WorkTime: dp.WorkTime,
	}
	if len(dp.Phones) > 0 {
		office.Phone = dp.Phones[0].Number
	}
	if dp.Location != nil {
		address := firstNonEmpty(dp.Location.Address, dp.Location.AddressFull, dp.AddressFull)
		office.Address = address
		office.City = dp.Location.City
		office.CityCode = dp.Location.CityCode
		office.PostalCode = dp.Location.PostalCode
		office.Location = &Location{
			Latitude:  dp.Location.Latitude,
			Longitude: dp.Location.Longitude,
			Address:   address,
		}
	}
	return office, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
