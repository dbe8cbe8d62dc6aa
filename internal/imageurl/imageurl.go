// Package imageurl turns image paths returned by the API into URLs a
// renderer can load directly.
package imageurl

import (
	"strings"

	"marketplace-storefront/internal/models"
)

// Resolve maps path onto base:
//
//	""                      -> placeholder
//	http://, https://, data:, blob: -> unchanged
//	/uploads/x.jpg          -> base + /uploads/x.jpg
//	uploads/x.jpg           -> base + /uploads/x.jpg
//	x.jpg                   -> base + /uploads/x.jpg
func Resolve(base, path, placeholder string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return placeholder
	}
	for _, prefix := range []string{"http://", "https://", "data:", "blob:"} {
		if strings.HasPrefix(path, prefix) {
			return path
		}
	}

	base = strings.TrimRight(base, "/")
	switch {
	case strings.HasPrefix(path, "/uploads/"):
		return base + path
	case strings.HasPrefix(path, "uploads/"):
		return base + "/" + path
	}
	return base + "/uploads/" + strings.TrimLeft(path, "/")
}

// Resolver binds a base URL and placeholder so callers pass only paths.
type Resolver struct {
	Base        string
	Placeholder string
}

func (r Resolver) Resolve(path string) string {
	return Resolve(r.Base, path, r.Placeholder)
}

// Product rewrites every image of p in place.
func (r Resolver) Product(p *models.Product) {
	if p == nil {
		return
	}
	for i := range p.Images {
		p.Images[i].URL = r.Resolve(p.Images[i].URL)
	}
	r.User(p.Seller)
}

func (r Resolver) Products(ps []models.Product) {
	for i := range ps {
		r.Product(&ps[i])
	}
}

// User resolves the avatar. An empty avatar stays empty so renderers can
// show initials instead.
func (r Resolver) User(u *models.User) {
	if u == nil || u.Avatar == "" {
		return
	}
	u.Avatar = r.Resolve(u.Avatar)
}

func (r Resolver) Cart(c *models.Cart) {
	if c == nil {
		return
	}
	for i := range c.Items {
		c.Items[i].Image = r.Resolve(c.Items[i].Image)
	}
}

func (r Resolver) Order(o *models.Order) {
	if o == nil {
		return
	}
	for i := range o.Items {
		o.Items[i].Image = r.Resolve(o.Items[i].Image)
	}
}

func (r Resolver) Conversation(c *models.Conversation) {
	if c == nil {
		return
	}
	if c.Product != nil {
		c.Product.Image = r.Resolve(c.Product.Image)
	}
	for i := range c.Participants {
		r.User(&c.Participants[i])
	}
}
