package product

// Samples returns the demonstration catalog offered when a store starts empty.
func Samples() []Product {
	return []Product{
		mustNew(1, "Manzana Roja", 100, 0.50),
		mustNew(2, "Manzana Verde", 80, 0.55),
		mustNew(3, "Leche Entera", 50, 1.20),
		mustNew(4, "Pan Integral", 30, 2.50),
		mustNew(5, "Jugo de Naranja", 20, 3.75),
	}
}

func mustNew(id int64, name string, quantity int64, price float64) Product {
	p, err := New(id, name, quantity, price)
	if err != nil {
		panic(err)
	}
	return p
}
