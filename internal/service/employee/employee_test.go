package employee

import "testing"

func f(v float64) *float64 { return &v }

func TestValidateCoordinates(t *testing.T) {
	cases := []struct {
		name    string
		lat     *float64
		lng     *float64
		wantErr bool
	}{
		{"both absent", nil, nil, false},
		{"both valid", f(-1.2921), f(36.8219), false},
		{"lat only", f(-1.2921), nil, true},
		{"lng only", nil, f(36.8219), true},
		{"lat too high", f(91), f(0), true},
		{"lat too low", f(-91), f(0), true},
		{"lng too high", f(0), f(181), true},
		{"lng too low", f(0), f(-181), true},
		{"boundary values", f(90), f(-180), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateCoordinates(tc.lat, tc.lng)
			if (err != nil) != tc.wantErr {
				t.Errorf("ValidateCoordinates(%v, %v) err = %v, wantErr %v", tc.lat, tc.lng, err, tc.wantErr)
			}
		})
	}
}
