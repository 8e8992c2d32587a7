// Package catalog holds the list items the admin screens manage and the
// mutators those screens feed to the optimistic controller. Before the
// controller existed each screen carried its own copy of the
// apply/confirm/rollback dance; the mutators are all that is left of them.
package catalog

import "time"

// Article is a news or lesson entry managed from the admin article list.
type Article struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Body        string    `json:"body,omitempty"`
	Published   bool      `json:"published"`
	PublishedAt time.Time `json:"published_at,omitempty"`
}

// PrayerRequest is a submitted prayer request reviewed from the admin list.
type PrayerRequest struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name,omitempty"`
	Text        string    `json:"text"`
	Read        bool      `json:"read"`
	SubmittedAt time.Time `json:"submitted_at,omitempty"`
}

// ShopItem is a product in the parish shop.
type ShopItem struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Price   int64  `json:"price,omitempty"` // minor currency units
	InStock bool   `json:"in_stock"`
	Stock   int    `json:"stock"`
}

// SetPublished returns a mutator flipping an article's published status.
func SetPublished(published bool) func(Article) Article {
	return func(a Article) Article {
		a.Published = published
		return a
	}
}

// MarkRead marks a prayer request as read.
func MarkRead(p PrayerRequest) PrayerRequest {
	p.Read = true
	return p
}

// MarkUnread marks a prayer request as unread.
func MarkUnread(p PrayerRequest) PrayerRequest {
	p.Read = false
	return p
}

// SetStock returns a mutator setting a shop item's stock count; the
// in-stock flag follows the count.
func SetStock(stock int) func(ShopItem) ShopItem {
	return func(s ShopItem) ShopItem {
		s.Stock = stock
		s.InStock = stock > 0
		return s
	}
}
