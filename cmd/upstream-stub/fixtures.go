package main

type stubCountry struct {
	Name        string
	CCA2        string
	CCA3        string
	Capital     string
	Subregion   string
	Currency    string
	LatLng      [2]float64
	GDP         float64
	GDPGrowth   float64
	Population  float64
	PopGrowth   float64
	Agriculture *float64
	Industry    *float64
	Services    *float64
}

func pct(v float64) *float64 { return &v }

// countries cobre todas as sub-regiões, inclusive uma fora da ordem canônica
// (Middle Africa) e um país sem participação setorial.
var countries = []stubCountry{
	{
		Name: "Kenya", CCA2: "KE", CCA3: "KEN", Capital: "Nairobi", Subregion: "Eastern Africa",
		Currency: "KES", LatLng: [2]float64{-1.28, 36.82},
		GDP: 107.44e9, GDPGrowth: 5.6, Population: 55.1e6, PopGrowth: 1.9,
		Agriculture: pct(21.2), Industry: pct(16.5), Services: pct(54.0),
	},
	{
		Name: "Nigeria", CCA2: "NG", CCA3: "NGA", Capital: "Abuja", Subregion: "Western Africa",
		Currency: "NGN", LatLng: [2]float64{9.08, 7.53},
		GDP: 252.74e9, GDPGrowth: 2.9, Population: 223.8e6, PopGrowth: 2.4,
		Agriculture: pct(22.7), Industry: pct(27.9), Services: pct(44.4),
	},
	{
		Name: "South Africa", CCA2: "ZA", CCA3: "ZAF", Capital: "Pretoria", Subregion: "Southern Africa",
		Currency: "ZAR", LatLng: [2]float64{-25.7, 28.22},
		GDP: 377.78e9, GDPGrowth: 0.6, Population: 60.4e6, PopGrowth: 0.9,
	},
	{
		Name: "Egypt", CCA2: "EG", CCA3: "EGY", Capital: "Cairo", Subregion: "Northern Africa",
		Currency: "EGP", LatLng: [2]float64{30.05, 31.25},
		GDP: 395.93e9, GDPGrowth: 3.8, Population: 112.7e6, PopGrowth: 1.6,
		Agriculture: pct(11.2), Industry: pct(33.1), Services: pct(50.1),
	},
	{
		Name: "Ghana", CCA2: "GH", CCA3: "GHA", Capital: "Accra", Subregion: "Western Africa",
		Currency: "GHS", LatLng: [2]float64{5.55, -0.22},
		GDP: 76.37e9, GDPGrowth: 2.9, Population: 34.1e6, PopGrowth: 1.9,
		Agriculture: pct(20.7), Industry: pct(31.6), Services: pct(41.8),
	},
	{
		Name: "Cameroon", CCA2: "CM", CCA3: "CMR", Capital: "Yaoundé", Subregion: "Middle Africa",
		Currency: "XAF", LatLng: [2]float64{3.85, 11.5},
		GDP: 47.95e9, GDPGrowth: 3.2, Population: 28.6e6, PopGrowth: 2.6,
	},
}

func findCountry(code string) (stubCountry, bool) {
	for _, c := range countries {
		if c.CCA2 == code || c.CCA3 == code {
			return c, true
		}
	}
	return stubCountry{}, false
}

// indicatorValue devolve nil quando o país não tem a série.
func (c stubCountry) indicatorValue(indicator string) *float64 {
	switch indicator {
	case "NY.GDP.MKTP.CD":
		return pct(c.GDP)
	case "NY.GDP.MKTP.KD.ZG":
		return pct(c.GDPGrowth)
	case "SP.POP.TOTL":
		return pct(c.Population)
	case "SP.POP.GROW":
		return pct(c.PopGrowth)
	case "NV.AGR.TOTL.ZS":
		return c.Agriculture
	case "NV.IND.TOTL.ZS":
		return c.Industry
	case "NV.SRV.TOTL.ZS":
		return c.Services
	}
	return nil
}
