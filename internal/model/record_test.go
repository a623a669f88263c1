package model

import (
	"testing"
)

func TestNewCoordinateKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		lat, lng  float64
		precision int
		want      CoordinateKey
	}{
		{
			name:      "rounds at five decimals",
			lat:       31.230450,
			lng:       121.473710,
			precision: 5,
			want:      CoordinateKey{Lat: 3123045, Lng: 12147371},
		},
		{
			name:      "jitter beyond precision merges",
			lat:       31.230453,
			lng:       121.473712,
			precision: 5,
			want:      CoordinateKey{Lat: 3123045, Lng: 12147371},
		},
		{
			name:      "four decimal precision",
			lat:       31.2304,
			lng:       121.4737,
			precision: 4,
			want:      CoordinateKey{Lat: 312304, Lng: 1214737},
		},
		{
			name:      "negative coordinates",
			lat:       -33.86882,
			lng:       -70.64827,
			precision: 5,
			want:      CoordinateKey{Lat: -3386882, Lng: -7064827},
		},
		{
			name:      "negative precision clamps to zero",
			lat:       31.7,
			lng:       121.2,
			precision: -1,
			want:      CoordinateKey{Lat: 32, Lng: 121},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := NewCoordinateKey(tt.lat, tt.lng, tt.precision)
			if got != tt.want {
				t.Errorf("NewCoordinateKey(%v, %v, %d) = %v, want %v",
					tt.lat, tt.lng, tt.precision, got, tt.want)
			}
		})
	}

	t.Run("differences before the precision stay distinct", func(t *testing.T) {
		t.Parallel()
		a := NewCoordinateKey(31.23045, 121.47371, 5)
		b := NewCoordinateKey(31.23150, 121.47371, 5)
		if a == b {
			t.Errorf("expected distinct keys, both were %v", a)
		}
	})
}

func TestCoordinateKeyString(t *testing.T) {
	t.Parallel()

	key := CoordinateKey{Lat: 3123045, Lng: 12147371}
	if got := key.String(); got != "3123045:12147371" {
		t.Errorf("String() = %q, want %q", got, "3123045:12147371")
	}
}
