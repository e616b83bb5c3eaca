package checkout

import "strings"

// Details 联系与收货信息，字段名与下单接口保持一致
type Details struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Address   string `json:"address"`
	City      string `json:"city"`
	ZipCode   string `json:"zipCode"`
	Phone     string `json:"phone"`
}

// Normalize 去除首尾空白
func (d Details) Normalize() Details {
	return Details{
		Email:     strings.TrimSpace(d.Email),
		FirstName: strings.TrimSpace(d.FirstName),
		LastName:  strings.TrimSpace(d.LastName),
		Address:   strings.TrimSpace(d.Address),
		City:      strings.TrimSpace(d.City),
		ZipCode:   strings.TrimSpace(d.ZipCode),
		Phone:     strings.TrimSpace(d.Phone),
	}
}

// Missing 返回为空的必填字段名
func (d Details) Missing() []string {
	fields := []struct {
		name  string
		value string
	}{
		{"email", d.Email},
		{"firstName", d.FirstName},
		{"lastName", d.LastName},
		{"address", d.Address},
		{"city", d.City},
		{"zipCode", d.ZipCode},
		{"phone", d.Phone},
	}
	missing := make([]string, 0)
	for _, field := range fields {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.name)
		}
	}
	return missing
}
