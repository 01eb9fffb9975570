package application

import "github.com/shopfront/order-platform/internal/domain"

// ToOrderDTO converts a domain order to its response form
func ToOrderDTO(order *domain.Order) *OrderDTO {
	products := make([]ProductDTO, 0, len(order.Products))
	for _, p := range order.Products {
		products = append(products, ProductDTO{
			ProductID: p.ProductID,
			Name:      p.Name,
			Price:     p.Price,
			Image:     p.Image,
		})
	}

	items := make([]CartLineDTO, 0, len(order.Carts))
	for _, line := range order.Carts {
		items = append(items, CartLineDTO{ProductID: line.ProductID, Quantity: line.Quantity})
	}

	dto := &OrderDTO{
		ID:     order.ID,
		UserID: order.UserID,
		Address: AddressDTO{
			ID:      order.Address.ID,
			Name:    order.Address.Name,
			Line1:   order.Address.Line1,
			Line2:   order.Address.Line2,
			City:    order.Address.City,
			State:   order.Address.State,
			Pincode: order.Address.Pincode,
			Phone:   order.Address.Phone,
		},
		Products:       products,
		Items:          items,
		Total:          order.Total,
		DiscountPrice:  order.DiscountPrice,
		PaymentMethod:  string(order.PaymentMethod),
		Status:         string(order.Status),
		GatewayOrderID: order.GatewayOrderID,
		CreatedAt:      order.CreatedAt,
		UpdatedAt:      order.UpdatedAt,
	}

	if order.Return != nil {
		dto.Return = &ReturnDTO{
			Requested:   order.Return.Requested,
			Reason:      order.Return.Reason,
			RequestedAt: order.Return.RequestedAt,
		}
	}

	return dto
}

// ToOrderDTOs converts a slice of orders
func ToOrderDTOs(orders []*domain.Order) []OrderDTO {
	dtos := make([]OrderDTO, 0, len(orders))
	for _, o := range orders {
		dtos = append(dtos, *ToOrderDTO(o))
	}
	return dtos
}

// ToUserDTO converts a user
func ToUserDTO(user *domain.User) *UserDTO {
	if user == nil {
		return nil
	}
	return &UserDTO{ID: user.ID, Name: user.Name, Email: user.Email}
}
