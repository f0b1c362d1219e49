package models

// Valores iniciales: se escriben la primera vez que un documento no existe.

func InitialConfig() StoreConfig {
	return StoreConfig{
		LogoURL: "https://i.imgur.com/JvA19tW.png",
		Contact: Contact{Name: "Bombon Store", Phone: "573001234567", Schedule: "Lunes a Sábado, 9am - 7pm"},
		Social:  Social{Instagram: "https://instagram.com", TikTok: "https://tiktok.com", WhatsApp: "573001234567"},
	}
}

func InitialBanners() BannerList {
	return BannerList{List: []Banner{
		{ID: 1, ImageURL: "https://i.imgur.com/8m2nJCr.jpeg", Title: "Colección Esencia", Subtitle: "Descubre tu estilo, define tu esencia.", Link: "#productos"},
		{ID: 2, ImageURL: "https://i.imgur.com/jBwDqA4.jpeg", Title: "Vibra con el Color", Subtitle: "Piezas únicas para un look inolvidable.", Link: "#productos"},
		{ID: 3, ImageURL: "https://i.imgur.com/1nL3y2A.jpeg", Title: "Pantalones con Estilo", Subtitle: "Comodidad y elegancia en cada paso.", Link: "category:Pantalones"},
	}}
}

func InitialCategories() CategoryList {
	return CategoryList{List: []Category{"Blusas", "Vestidos", "Pantalones", "Accesorios", "Chaquetas", "Bolsos"}}
}

func sizes(labels map[string]bool) map[string]SizeDetail {
	out := make(map[string]SizeDetail, len(labels))
	for l, a := range labels {
		out[l] = SizeDetail{Available: a}
	}
	return out
}

func InitialProducts() ProductList {
	return ProductList{List: []Product{
		{
			ID: "prod1", Name: `Blusa de Seda "Aurora"`, Description: "Elegante blusa de seda con un corte clásico y un tacto suave.",
			Price: 180000, Category: "Blusas", ImageURL: "https://i.imgur.com/sT9c2Yd.jpeg", Available: true,
			Variants: &Variants{
				HasSizes: true, Sizes: sizes(map[string]bool{"S": true, "M": true, "L": false}),
				HasColors: true, Colors: map[string]ColorDetail{
					"Rosa Pastel":  {Available: true, ImageURL: "https://i.imgur.com/sT9c2Yd.jpeg"},
					"Blanco Crudo": {Available: true, ImageURL: "https://i.imgur.com/RJGt0zF.jpeg"},
				},
			},
		},
		{
			ID: "prod2", Name: `Vestido "Verano Eterno"`, Description: "Vestido floral perfecto para un día soleado, ligero y fresco.",
			Price: 250000, Category: "Vestidos", ImageURL: "https://i.imgur.com/E13sYyO.jpeg", Available: true,
			Variants: &Variants{HasSizes: true, Sizes: sizes(map[string]bool{"S": true, "M": true, "L": true}), Colors: map[string]ColorDetail{}},
		},
		{
			ID: "prod3", Name: `Pantalón Palazzo "Elegancia"`, Description: "Pantalón de pierna ancha que estiliza la figura.",
			Price: 220000, Category: "Pantalones", ImageURL: "https://i.imgur.com/1nL3y2A.jpeg", Available: true,
			Variants: &Variants{
				HasSizes: true, Sizes: sizes(map[string]bool{"34": true, "36": true, "38": true}),
				HasColors: true, Colors: map[string]ColorDetail{
					"Negro": {Available: true, ImageURL: "https://i.imgur.com/1nL3y2A.jpeg"},
					"Beige": {Available: false, ImageURL: "https://i.imgur.com/qEwV3nC.jpeg"},
				},
			},
		},
		{
			ID: "prod4", Name: `Bolso "Tote" de Cuero`, Description: "Un bolso espacioso y chic para llevar todo lo que necesitas.",
			Price: 350000, Category: "Bolsos", ImageURL: "https://i.imgur.com/AdA202F.jpeg", Available: true,
			Variants: &Variants{
				Sizes:     map[string]SizeDetail{},
				HasColors: true,
				Colors: map[string]ColorDetail{
					"Marrón": {Available: true, ImageURL: "https://i.imgur.com/AdA202F.jpeg"},
					"Negro":  {Available: true, ImageURL: "https://i.imgur.com/YAnK9uq.jpeg"},
				},
			},
		},
		{
			ID: "prod5", Name: `Falda Midi "Parisina"`, Description: "Falda con pliegues y un estampado chic.",
			Price: 190000, Category: "Vestidos", ImageURL: "https://i.imgur.com/Qk7a5xS.jpeg", Available: false,
			Variants: &Variants{HasSizes: true, Sizes: sizes(map[string]bool{"S": true, "M": false}), Colors: map[string]ColorDetail{}},
		},
		{
			ID: "prod6", Name: `Aretes "Gota de Oro"`, Description: "Aretes delicados para un toque de brillo.",
			Price: 95000, Category: "Accesorios", ImageURL: "https://i.imgur.com/J3cZJ8W.jpeg", Available: true,
			Variants: &Variants{Sizes: map[string]SizeDetail{}, Colors: map[string]ColorDetail{}},
		},
		{
			ID: "prod7", Name: `Chaqueta Denim "Urbana"`, Description: "Chaqueta de jean clásica, un básico indispensable.",
			Price: 280000, Category: "Chaquetas", ImageURL: "https://i.imgur.com/tqB9z3g.jpeg", Available: true,
			Variants: &Variants{HasSizes: true, Sizes: sizes(map[string]bool{"S": true, "M": true}), Colors: map[string]ColorDetail{}},
		},
		{
			ID: "prod8", Name: "Top Corto de Lino", Description: "Top fresco y versátil, ideal para combinar.",
			Price: 130000, Category: "Blusas", ImageURL: "https://i.imgur.com/hYkH5sN.jpeg", Available: true,
			Variants: &Variants{HasSizes: true, Sizes: sizes(map[string]bool{"XS": true, "S": true, "M": true}), Colors: map[string]ColorDetail{}},
		},
	}}
}
