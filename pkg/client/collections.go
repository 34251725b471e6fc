package client

import (
	"context"
	"fmt"
	"strconv"
)

// TagPath returns the path of a single tag.
func TagPath(id int) string {
	return PathTags + "/" + strconv.Itoa(id)
}

// TagLinksPath returns the path listing the links of a tag.
func TagLinksPath(id int) string {
	return TagPath(id) + "/links"
}

// ListPath returns the path of a single list.
func ListPath(id int) string {
	return PathLists + "/" + strconv.Itoa(id)
}

// ListLinksPath returns the path listing the links of a list.
func ListLinksPath(id int) string {
	return ListPath(id) + "/links"
}

// GetTag retrieves a tag by ID.
func (c *Client) GetTag(ctx context.Context, id int) (*Tag, error) {
	var tag Tag
	if err := c.get(ctx, TagPath(id), nil, &tag); err != nil {
		return nil, fmt.Errorf("getting tag %d: %w", id, err)
	}
	return &tag, nil
}

// GetTagLinks retrieves the links carrying a tag.
func (c *Client) GetTagLinks(ctx context.Context, id int) ([]Link, error) {
	var page linkPage
	if err := c.get(ctx, TagLinksPath(id), nil, &page); err != nil {
		return nil, fmt.Errorf("getting links for tag %d: %w", id, err)
	}
	return page.Data, nil
}

// GetList retrieves a list by ID.
func (c *Client) GetList(ctx context.Context, id int) (*List, error) {
	var list List
	if err := c.get(ctx, ListPath(id), nil, &list); err != nil {
		return nil, fmt.Errorf("getting list %d: %w", id, err)
	}
	return &list, nil
}

// GetListLinks retrieves the links in a list.
func (c *Client) GetListLinks(ctx context.Context, id int) ([]Link, error) {
	var page linkPage
	if err := c.get(ctx, ListLinksPath(id), nil, &page); err != nil {
		return nil, fmt.Errorf("getting links for list %d: %w", id, err)
	}
	return page.Data, nil
}
