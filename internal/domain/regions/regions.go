package regions

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type Region struct {
	Name    string   `json:"name"`
	Comunas []string `json:"comunas"`
}

// table is ordered north to south.
var table = []Region{
	{Name: "Arica y Parinacota", Comunas: []string{
		"Arica", "Camarones", "General Lagos", "Putre",
	}},
	{Name: "Tarapacá", Comunas: []string{
		"Alto Hospicio", "Camiña", "Colchane", "Huara", "Iquique",
		"Pica", "Pozo Almonte",
	}},
	{Name: "Antofagasta", Comunas: []string{
		"Antofagasta", "Calama", "María Elena", "Mejillones", "Ollagüe",
		"San Pedro de Atacama", "Sierra Gorda", "Taltal", "Tocopilla",
	}},
	{Name: "Atacama", Comunas: []string{
		"Alto del Carmen", "Caldera", "Chañaral", "Copiapó", "Diego de Almagro",
		"Freirina", "Huasco", "Tierra Amarilla", "Vallenar",
	}},
	{Name: "Coquimbo", Comunas: []string{
		"Andacollo", "Canela", "Combarbalá", "Coquimbo", "Illapel",
		"La Higuera", "La Serena", "Los Vilos", "Monte Patria", "Ovalle",
		"Paiguano", "Punitaqui", "Río Hurtado", "Salamanca", "Vicuña",
	}},
	{Name: "Valparaíso", Comunas: []string{
		"Algarrobo", "Cabildo", "Calera", "Calle Larga", "Cartagena",
		"Casablanca", "Catemu", "Concón", "El Quisco", "El Tabo",
		"Hijuelas", "Isla de Pascua", "Juan Fernández", "La Cruz", "La Ligua",
		"Limache", "Llaillay", "Los Andes", "Nogales", "Olmué",
		"Panquehue", "Papudo", "Petorca", "Puchuncaví", "Putaendo",
		"Quillota", "Quilpué", "Quintero", "Rinconada", "San Antonio",
		"San Esteban", "San Felipe", "Santa María", "Santo Domingo", "Valparaíso",
		"Villa Alemana", "Viña del Mar", "Zapallar",
	}},
	{Name: "Región Metropolitana", Comunas: []string{
		"Alhué", "Buin", "Calera de Tango", "Cerrillos", "Cerro Navia",
		"Colina", "Conchalí", "Curacaví", "El Bosque", "El Monte",
		"Estación Central", "Huechuraba", "Independencia", "Isla de Maipo", "La Cisterna",
		"La Florida", "La Granja", "La Pintana", "La Reina", "Lampa",
		"Las Condes", "Lo Barnechea", "Lo Espejo", "Lo Prado", "Macul",
		"Maipú", "María Pinto", "Melipilla", "Ñuñoa", "Padre Hurtado",
		"Paine", "Pedro Aguirre Cerda", "Peñaflor", "Peñalolén", "Pirque",
		"Providencia", "Pudahuel", "Puente Alto", "Quilicura", "Quinta Normal",
		"Recoleta", "Renca", "San Bernardo", "San Joaquín", "San José de Maipo",
		"San Miguel", "San Pedro", "San Ramón", "Santiago", "Talagante",
		"Tiltil", "Vitacura",
	}},
	{Name: "O'Higgins", Comunas: []string{
		"Chimbarongo", "Chépica", "Codegua", "Coinco", "Coltauco",
		"Doñihue", "Graneros", "La Estrella", "Las Cabras", "Litueche",
		"Lolol", "Machalí", "Malloa", "Marchihue", "Mostazal",
		"Nancagua", "Navidad", "Olivar", "Palmilla", "Paredones",
		"Peralillo", "Peumo", "Pichidegua", "Pichilemu", "Placilla",
		"Pumanque", "Quinta de Tilcoco", "Rancagua", "Rengo", "Requínoa",
		"San Fernando", "San Vicente", "Santa Cruz",
	}},
	{Name: "Maule", Comunas: []string{
		"Cauquenes", "Chanco", "Colbún", "Constitución", "Curepto",
		"Curicó", "Empedrado", "Hualañé", "Licantén", "Linares",
		"Longaví", "Maule", "Molina", "Parral", "Pelarco",
		"Pelluhue", "Pencahue", "Rauco", "Retiro", "Río Claro",
		"Romeral", "Sagrada Familia", "San Clemente", "San Javier", "San Rafael",
		"Talca", "Teno", "Vichuquén", "Villa Alegre", "Yerbas Buenas",
	}},
	{Name: "Ñuble", Comunas: []string{
		"Bulnes", "Chillán", "Chillán Viejo", "Cobquecura", "Coelemu",
		"Coihueco", "El Carmen", "Ninhue", "Ñiquén", "Pemuco",
		"Pinto", "Portezuelo", "Quillón", "Quirihue", "Ránquil",
		"San Carlos", "San Fabián", "San Ignacio", "San Nicolás", "Treguaco",
		"Yungay",
	}},
	{Name: "Biobío", Comunas: []string{
		"Alto Biobío", "Antuco", "Arauco", "Cabrero", "Cañete",
		"Chiguayante", "Concepción", "Contulmo", "Coronel", "Curanilahue",
		"Florida", "Hualpén", "Hualqui", "Laja", "Lebu",
		"Los Álamos", "Los Ángeles", "Lota", "Mulchén", "Nacimiento",
		"Negrete", "Penco", "Quilaco", "Quilleco", "San Pedro de la Paz",
		"San Rosendo", "Santa Bárbara", "Santa Juana", "Talcahuano", "Tirúa",
		"Tomé", "Tucapel", "Yumbel",
	}},
	{Name: "Araucanía", Comunas: []string{
		"Angol", "Carahue", "Cholchol", "Collipulli", "Cunco",
		"Curacautín", "Curarrehue", "Ercilla", "Freire", "Galvarino",
		"Gorbea", "Lautaro", "Loncoche", "Lonquimay", "Los Sauces",
		"Lumaco", "Melipeuco", "Nueva Imperial", "Padre Las Casas", "Perquenco",
		"Pitrufquén", "Pucón", "Purén", "Renaico", "Saavedra",
		"Temuco", "Teodoro Schmidt", "Toltén", "Traiguén", "Victoria",
		"Vilcún", "Villarrica",
	}},
	{Name: "Los Ríos", Comunas: []string{
		"Corral", "Futrono", "La Unión", "Lago Ranco", "Lanco",
		"Los Lagos", "Máfil", "Mariquina", "Paillaco", "Panguipulli",
		"Río Bueno", "Valdivia",
	}},
	{Name: "Los Lagos", Comunas: []string{
		"Ancud", "Calbuco", "Castro", "Chaitén", "Chonchi",
		"Cochamó", "Curaco de Vélez", "Dalcahue", "Fresia", "Frutillar",
		"Futaleufú", "Hualaihué", "Llanquihue", "Los Muermos", "Maullín",
		"Osorno", "Palena", "Puerto Montt", "Puerto Octay", "Puerto Varas",
		"Puqueldón", "Purranque", "Puyehue", "Queilén", "Quellón",
		"Quemchi", "Quinchao", "Río Negro", "San Juan de la Costa", "San Pablo",
	}},
	{Name: "Aysén", Comunas: []string{
		"Aysén", "Chile Chico", "Cisnes", "Cochrane", "Coyhaique",
		"Guaitecas", "Lago Verde", "O'Higgins", "Río Ibáñez", "Tortel",
	}},
	{Name: "Magallanes", Comunas: []string{
		"Antártica", "Cabo de Hornos", "Laguna Blanca", "Natales", "Porvenir",
		"Primavera", "Punta Arenas", "Río Verde", "San Gregorio", "Timaukel",
		"Torres del Paine",
	}},
}

// Regions returns a copy of the region table.
func Regions() []Region {
	out := make([]Region, len(table))
	for i, region := range table {
		out[i] = Region{Name: region.Name, Comunas: append([]string(nil), region.Comunas...)}
	}
	return out
}

// Comunas returns the comunas of a region, or nil for an unknown region.
func Comunas(region string) []string {
	key := Fold(region)
	for _, r := range table {
		if Fold(r.Name) == key {
			return append([]string(nil), r.Comunas...)
		}
	}
	return nil
}

// RegionForComuna returns the first region, north to south, that lists the
// comuna. O'Higgins is both a region and a comuna in Aysén.
func RegionForComuna(comuna string) (string, bool) {
	key := Fold(comuna)
	if key == "" {
		return "", false
	}
	for _, r := range table {
		for _, c := range r.Comunas {
			if Fold(c) == key {
				return r.Name, true
			}
		}
	}
	return "", false
}

func Valid(region, comuna string) bool {
	regionKey := Fold(region)
	comunaKey := Fold(comuna)
	if regionKey == "" || comunaKey == "" {
		return false
	}
	for _, r := range table {
		if Fold(r.Name) != regionKey {
			continue
		}
		for _, c := range r.Comunas {
			if Fold(c) == comunaKey {
				return true
			}
		}
		return false
	}
	return false
}

// AllComunas returns every comuna sorted by the table order.
func AllComunas() []string {
	var out []string
	for _, r := range table {
		out = append(out, r.Comunas...)
	}
	return out
}

// Fold lowercases s and strips diacritics so "Ñuñoa" and "nunoa" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		folded = strings.TrimSpace(s)
	}
	return strings.ToLower(folded)
}
