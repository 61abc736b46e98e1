package regions

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegionsOrderAndCount(t *testing.T) {
	all := Regions()
	require.Len(t, all, 16)
	require.Equal(t, "Arica y Parinacota", all[0].Name)
	require.Equal(t, "Región Metropolitana", all[6].Name)
	require.Equal(t, "Magallanes", all[15].Name)
	require.Len(t, AllComunas(), 346)
}

func TestRegionsReturnsCopy(t *testing.T) {
	all := Regions()
	all[0].Comunas[0] = "mutated"
	require.Equal(t, "Arica", Regions()[0].Comunas[0])
}

func TestComunas(t *testing.T) {
	require.Contains(t, Comunas("Región Metropolitana"), "Ñuñoa")
	require.Contains(t, Comunas("region metropolitana"), "Providencia")
	require.Nil(t, Comunas("Atlantis"))
}

func TestRegionForComuna(t *testing.T) {
	tests := []struct {
		comuna string
		region string
		ok     bool
	}{
		{"Providencia", "Región Metropolitana", true},
		{"nunoa", "Región Metropolitana", true},
		{"  VIÑA DEL MAR ", "Valparaíso", true},
		{"Punta Arenas", "Magallanes", true},
		{"O'Higgins", "Aysén", true},
		{"Gotham", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.comuna, func(t *testing.T) {
			region, ok := RegionForComuna(tt.comuna)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.region, region)
		})
	}
}

func TestValid(t *testing.T) {
	require.True(t, Valid("Región Metropolitana", "Santiago"))
	require.True(t, Valid("biobio", "Concepcion"))
	require.False(t, Valid("Región Metropolitana", "Concepción"))
	require.False(t, Valid("", "Santiago"))
	require.False(t, Valid("Nowhere", "Santiago"))
}
