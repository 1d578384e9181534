package checkout

import "fmt"

type OutOfStockItem struct {
	ProductID uint64
	Color     string
	Size      string
	Requested int
	Available int
}

type OutOfStockError struct {
	Items []OutOfStockItem
}

func (e *OutOfStockError) Error() string {
	if len(e.Items) == 0 {
		return "out of stock"
	}
	it := e.Items[0]
	return fmt.Sprintf("out of stock: product=%d color=%s size=%s requested=%d available=%d",
		it.ProductID, it.Color, it.Size, it.Requested, it.Available)
}
