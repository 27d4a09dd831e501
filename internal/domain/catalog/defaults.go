package catalog

// DefaultCategories is the electronics storefront the generator ships with
func DefaultCategories() []Category {
	return []Category{
		{Name: "Laptops", Products: []Product{
			{ID: "LAPTOP-XPS15-2024", Name: "Dell XPS 15 (2024)", Brand: "Dell", Price: 1899.99, Stock: 50},
			{ID: "LAPTOP-MBOOK-AIR-M3", Name: "MacBook Air M3", Brand: "Apple", Price: 1199.00, Stock: 120},
			{ID: "LAPTOP-SURFACE-PRO10", Name: "Microsoft Surface Pro 10", Brand: "Microsoft", Price: 1099.00, Stock: 70},
			{ID: "LAPTOP-ZENBOOK-14", Name: "ASUS ZenBook 14 OLED", Brand: "ASUS", Price: 999.00, Stock: 90},
			{ID: "LAPTOP-IDEAPAD-GAMING", Name: "Lenovo IdeaPad Gaming 3", Brand: "Lenovo", Price: 849.00, Stock: 60},
		}},
		{Name: "Smartphones", Products: []Product{
			{ID: "PHONE-IPHONE15", Name: "iPhone 15 Pro", Brand: "Apple", Price: 999.00, Stock: 200},
			{ID: "PHONE-SAMSUNG-S24", Name: "Samsung Galaxy S24 Ultra", Brand: "Samsung", Price: 1299.00, Stock: 180},
			{ID: "PHONE-PIXEL8", Name: "Google Pixel 8 Pro", Brand: "Google", Price: 799.00, Stock: 150},
			{ID: "PHONE-ONEPLUS-12", Name: "OnePlus 12", Brand: "OnePlus", Price: 799.00, Stock: 100},
			{ID: "PHONE-XIAOMI-14", Name: "Xiaomi 14 Ultra", Brand: "Xiaomi", Price: 999.00, Stock: 80},
		}},
		{Name: "Headphones", Products: []Product{
			{ID: "HP-SONY-WH1000XM5", Name: "Sony WH-1000XM5", Brand: "Sony", Price: 349.00, Stock: 300},
			{ID: "HP-BOSE-QC45", Name: "Bose QuietComfort 45", Brand: "Bose", Price: 279.00, Stock: 250},
			{ID: "HP-AIRPODS-MAX", Name: "AirPods Max", Brand: "Apple", Price: 549.00, Stock: 100},
			{ID: "HP-SENNH-HD660S2", Name: "Sennheiser HD 660S2", Brand: "Sennheiser", Price: 599.00, Stock: 50},
			{ID: "HP-JBL-TUNE760NC", Name: "JBL Tune 760NC", Brand: "JBL", Price: 129.00, Stock: 400},
		}},
		{Name: "Monitors", Products: []Product{
			{ID: "MON-DELL-U2723QE", Name: "Dell UltraSharp U2723QE", Brand: "Dell", Price: 599.00, Stock: 100},
			{ID: "MON-LG-27GN95R", Name: "LG UltraGear 27GN95R", Brand: "LG", Price: 799.00, Stock: 80},
			{ID: "MON-SAMSUNG-G9", Name: "Samsung Odyssey G9", Brand: "Samsung", Price: 1299.00, Stock: 40},
		}},
		{Name: "Keyboards", Products: []Product{
			{ID: "KB-LOGI-MXKEYS", Name: "Logitech MX Keys S", Brand: "Logitech", Price: 109.00, Stock: 200},
			{ID: "KB-RAZER-BWV3", Name: "Razer BlackWidow V3", Brand: "Razer", Price: 139.00, Stock: 150},
		}},
		{Name: "Mice", Products: []Product{
			{ID: "MOUSE-LOGI-MXMASTER3S", Name: "Logitech MX Master 3S", Brand: "Logitech", Price: 99.00, Stock: 250},
			{ID: "MOUSE-RAZER-DEATHADDER", Name: "Razer DeathAdder V3", Brand: "Razer", Price: 69.00, Stock: 180},
		}},
		{Name: "Speakers", Products: []Product{
			{ID: "SPK-BOSE-SOUNDLINKFLEX", Name: "Bose SoundLink Flex", Brand: "Bose", Price: 149.00, Stock: 120},
			{ID: "SPK-JBL-FLIP6", Name: "JBL Flip 6", Brand: "JBL", Price: 109.00, Stock: 150},
		}},
		{Name: "Cameras", Products: []Product{
			{ID: "CAM-SONY-A7IV", Name: "Sony Alpha a7 IV", Brand: "Sony", Price: 2499.00, Stock: 30},
			{ID: "CAM-CANON-R6II", Name: "Canon EOS R6 Mark II", Brand: "Canon", Price: 2299.00, Stock: 25},
		}},
		{Name: "Wearables", Products: []Product{
			{ID: "WEAR-APPLE-WATCH9", Name: "Apple Watch Series 9", Brand: "Apple", Price: 399.00, Stock: 200},
			{ID: "WEAR-SAMSUNG-WATCH6", Name: "Samsung Galaxy Watch 6", Brand: "Samsung", Price: 299.00, Stock: 180},
		}},
	}
}

// Default returns the built-in catalog
func Default() *Catalog {
	c, err := New(DefaultCategories())
	if err != nil {
		panic("built-in catalog is invalid: " + err.Error())
	}
	return c
}
