package geo

import (
	"math"
	"testing"
)

func TestResolved(t *testing.T) {
	tests := []struct {
		name string
		g    *Geolocation
		want bool
	}{
		{"nil", nil, false},
		{"empty", &Geolocation{}, false},
		{"city only", &Geolocation{City: "Springfield"}, false},
		{"city and latitude", &Geolocation{City: "Springfield", Latitude: Float(39.8)}, false},
		{"coordinates without city", &Geolocation{Latitude: Float(39.8), Longitude: Float(-89.6)}, false},
		{"full", &Geolocation{City: "Springfield", Latitude: Float(39.8), Longitude: Float(-89.6)}, true},
		{"zero coordinates count", &Geolocation{City: "Null Island", Latitude: Float(0), Longitude: Float(0)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.g.Resolved(); got != tt.want {
				t.Errorf("Resolved() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCoordinateStrings(t *testing.T) {
	g := &Geolocation{Latitude: Float(37.4224), Longitude: Float(-122.0842)}
	if g.LatitudeString() != "37.4224" {
		t.Errorf("LatitudeString() = %q", g.LatitudeString())
	}
	if g.LongitudeString() != "-122.0842" {
		t.Errorf("LongitudeString() = %q", g.LongitudeString())
	}

	var none *Geolocation
	if none.LatitudeString() != "" || none.LongitudeString() != "" {
		t.Error("nil geolocation should format as empty")
	}
	if _, _, ok := none.Coordinates(); ok {
		t.Error("nil geolocation should have no coordinates")
	}
}

func TestHaversine(t *testing.T) {
	// Paris -> London is roughly 344 km.
	d := Haversine(48.8566, 2.3522, 51.5074, -0.1278)
	if math.Abs(d-343_500) > 2_000 {
		t.Errorf("Haversine(Paris, London) = %.0f m", d)
	}
	if Haversine(10, 10, 10, 10) != 0 {
		t.Error("distance to self should be zero")
	}
}

func TestValidateCoordinates(t *testing.T) {
	if !ValidateCoordinates(45, 90) {
		t.Error("expected valid")
	}
	if ValidateCoordinates(91, 0) || ValidateCoordinates(0, -181) {
		t.Error("expected invalid")
	}
}
