package domain

import "time"

// Wallet is a user's stored balance. Created lazily by the first credit.
type Wallet struct {
	UserID    string    `bson:"userId" json:"userId"`
	Amount    float64   `bson:"amount" json:"amount"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Product is a catalog entry; only its stock is mutated here
type Product struct {
	ID    string  `bson:"_id" json:"id"`
	Name  string  `bson:"name" json:"name"`
	Price float64 `bson:"price" json:"price"`
	Image string  `bson:"image,omitempty" json:"image,omitempty"`
	Stock int     `bson:"stock" json:"stock"`
}

// Snapshot copies the product fields stored on an order
func (p *Product) Snapshot() ProductSnapshot {
	return ProductSnapshot{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Image:     p.Image,
	}
}
