package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"formation/internal/model"
)

// Landing content. Reads are public; writes require an admin token.

func (c *Client) GetHero(ctx context.Context) (*model.Hero, error) {
	var hero model.Hero
	if err := c.do(ctx, http.MethodGet, "/admin/hero/", nil, nil, &hero); err != nil {
		return nil, err
	}
	return &hero, nil
}

func (c *Client) UpdateHero(ctx context.Context, hero model.Hero) (*model.Hero, error) {
	var updated model.Hero
	if err := c.do(ctx, http.MethodPut, "/admin/hero/", nil, hero, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// GetCountdown returns nil without error when no countdown is configured.
func (c *Client) GetCountdown(ctx context.Context) (*model.Countdown, error) {
	var countdown model.Countdown
	if err := c.do(ctx, http.MethodGet, "/admin/countdown/", nil, nil, &countdown); err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &countdown, nil
}

func (c *Client) UpdateCountdown(ctx context.Context, countdown model.Countdown) (*model.Countdown, error) {
	var updated model.Countdown
	if err := c.do(ctx, http.MethodPut, "/admin/countdown/", nil, countdown, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) ListFeatures(ctx context.Context) ([]model.Feature, error) {
	return getList[model.Feature](ctx, c, "/admin/features/", nil)
}

func (c *Client) CreateFeature(ctx context.Context, f model.Feature) (*model.Feature, error) {
	var created model.Feature
	if err := c.do(ctx, http.MethodPost, "/admin/features/", nil, f, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateFeature(ctx context.Context, id string, f model.Feature) (*model.Feature, error) {
	var updated model.Feature
	if err := c.do(ctx, http.MethodPut, "/admin/features/"+url.PathEscape(id)+"/", nil, f, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteFeature(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/admin/features/"+url.PathEscape(id)+"/", nil, nil, nil)
}

func (c *Client) ListAdminCourses(ctx context.Context) ([]model.Course, error) {
	return getList[model.Course](ctx, c, "/admin/courses/", nil)
}

func (c *Client) CreateCourse(ctx context.Context, course model.Course) (*model.Course, error) {
	var created model.Course
	if err := c.do(ctx, http.MethodPost, "/admin/courses/", nil, course, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateCourse(ctx context.Context, id string, course model.Course) (*model.Course, error) {
	var updated model.Course
	if err := c.do(ctx, http.MethodPut, "/admin/courses/"+url.PathEscape(id)+"/", nil, course, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteCourse(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/admin/courses/"+url.PathEscape(id)+"/", nil, nil, nil)
}

func (c *Client) ListFAQ(ctx context.Context, activeOnly bool) ([]model.FAQItem, error) {
	var query url.Values
	if activeOnly {
		query = url.Values{"is_active": {"true"}}
	}
	return getList[model.FAQItem](ctx, c, "/admin/faq/", query)
}

func (c *Client) CreateFAQ(ctx context.Context, item model.FAQItem) (*model.FAQItem, error) {
	var created model.FAQItem
	if err := c.do(ctx, http.MethodPost, "/admin/faq/", nil, item, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateFAQ(ctx context.Context, id string, item model.FAQItem) (*model.FAQItem, error) {
	var updated model.FAQItem
	if err := c.do(ctx, http.MethodPut, "/admin/faq/"+url.PathEscape(id)+"/", nil, item, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteFAQ(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/admin/faq/"+url.PathEscape(id)+"/", nil, nil, nil)
}

// SubmitContact posts the public contact form.
func (c *Client) SubmitContact(ctx context.Context, msg model.ContactMessage) (*model.ContactMessage, error) {
	var created model.ContactMessage
	if err := c.do(ctx, http.MethodPost, "/admin/contact/", nil, msg, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) ListContactMessages(ctx context.Context, unreadOnly bool) ([]model.ContactMessage, error) {
	var query url.Values
	if unreadOnly {
		query = url.Values{"is_read": {"false"}}
	}
	return getList[model.ContactMessage](ctx, c, "/admin/contact/", query)
}

func (c *Client) MarkContactRead(ctx context.Context, id string, read bool) (*model.ContactMessage, error) {
	var updated model.ContactMessage
	body := map[string]bool{"is_read": read}
	if err := c.do(ctx, http.MethodPatch, "/admin/contact/"+url.PathEscape(id)+"/", nil, body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteContactMessage(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/admin/contact/"+url.PathEscape(id)+"/", nil, nil, nil)
}
