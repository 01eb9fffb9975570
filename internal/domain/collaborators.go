package domain

// User is a storefront customer
type User struct {
	ID        string `bson:"_id" json:"id"`
	Name      string `bson:"name" json:"name"`
	Email     string `bson:"email" json:"email"`
	IsBlocked bool   `bson:"isBlocked" json:"isBlocked"`
}

// Address is a saved delivery address
type Address struct {
	ID      string `bson:"_id" json:"id"`
	UserID  string `bson:"userId" json:"userId"`
	Name    string `bson:"name" json:"name"`
	Line1   string `bson:"line1" json:"line1"`
	Line2   string `bson:"line2,omitempty" json:"line2,omitempty"`
	City    string `bson:"city" json:"city"`
	State   string `bson:"state" json:"state"`
	Pincode string `bson:"pincode" json:"pincode"`
	Phone   string `bson:"phone,omitempty" json:"phone,omitempty"`
}

// Snapshot copies the address into an order
func (a *Address) Snapshot() AddressSnapshot {
	return AddressSnapshot{
		ID:      a.ID,
		Name:    a.Name,
		Line1:   a.Line1,
		Line2:   a.Line2,
		City:    a.City,
		State:   a.State,
		Pincode: a.Pincode,
		Phone:   a.Phone,
	}
}

// CartItem is one line of a user's cart
type CartItem struct {
	UserID    string `bson:"userId" json:"userId"`
	ProductID string `bson:"productId" json:"productId"`
	Quantity  int    `bson:"quantity" json:"quantity"`
}

// AdminCredential is a stored admin login
type AdminCredential struct {
	Username     string `bson:"_id" json:"username"`
	PasswordHash string `bson:"passwordHash" json:"-"`
	Disabled     bool   `bson:"disabled" json:"disabled"`
}
