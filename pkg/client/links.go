package client

import (
	"context"
	"fmt"
	"strconv"
)

// LinkPath returns the path of a single link.
func LinkPath(id int) string {
	return PathLinks + "/" + strconv.Itoa(id)
}

// GetLink retrieves a link by ID.
func (c *Client) GetLink(ctx context.Context, id int) (*Link, error) {
	var link Link
	if err := c.get(ctx, LinkPath(id), nil, &link); err != nil {
		return nil, fmt.Errorf("getting link %d: %w", id, err)
	}
	return &link, nil
}

// CreateLink stores a new link.
func (c *Client) CreateLink(ctx context.Context, in LinkInput) (*Link, error) {
	var link Link
	if err := c.post(ctx, PathLinks, in, &link); err != nil {
		return nil, fmt.Errorf("creating link %q: %w", in.URL, err)
	}
	return &link, nil
}

// UpdateLink changes the given fields of a link.
func (c *Client) UpdateLink(ctx context.Context, id int, in LinkInput) (*Link, error) {
	var link Link
	if err := c.patch(ctx, LinkPath(id), in, &link); err != nil {
		return nil, fmt.Errorf("updating link %d: %w", id, err)
	}
	return &link, nil
}

// DeleteLink removes a link.
func (c *Client) DeleteLink(ctx context.Context, id int) error {
	if err := c.delete(ctx, LinkPath(id)); err != nil {
		return fmt.Errorf("deleting link %d: %w", id, err)
	}
	return nil
}
