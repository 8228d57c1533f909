package figma

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/quellt/boxwood/pkg/cache"
	"github.com/quellt/boxwood/pkg/errors"
)

// ImageRequest describes an image render call.
type ImageRequest struct {
	// IDs are the node ids to render. Order does not matter.
	IDs []string

	// Format is the render format: png, jpg, svg, or pdf.
	Format string

	// Scale is the render scale factor in (0.01, 4]. Zero uses the
	// server default of 1.
	Scale float64

	// Refresh bypasses the cache.
	Refresh bool
}

// imagesResponse is the wire shape of a render call. A null URL means
// the renderer could not produce that node.
type imagesResponse struct {
	Err    string             `json:"err"`
	Images map[string]*string `json:"images"`
}

// Images renders nodes to images and returns a map from node id to URL.
// Nodes the renderer cannot produce are absent from the result; callers
// fall back to styled boxes for those.
func (c *Client) Images(ctx context.Context, fileKey string, req ImageRequest) (map[string]string, error) {
	if err := errors.ValidateFileKey(fileKey); err != nil {
		return nil, err
	}
	if len(req.IDs) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no node ids requested")
	}
	if err := errors.ValidateExportFormat(req.Format); err != nil {
		return nil, err
	}
	if req.Scale != 0 {
		if err := errors.ValidateScale(req.Scale); err != nil {
			return nil, err
		}
	}

	sorted := append([]string(nil), req.IDs...)
	sort.Strings(sorted)

	u := fmt.Sprintf("%s/v1/images/%s?ids=%s&format=%s",
		c.baseURL, fileKey,
		url.QueryEscape(strings.Join(sorted, ",")),
		url.QueryEscape(strings.ToLower(req.Format)))
	if req.Scale != 0 {
		u += "&scale=" + strconv.FormatFloat(req.Scale, 'f', -1, 64)
	}

	key := c.keyer.ImageKey(fileKey, cache.ImageKeyOpts{
		IDs:    sorted,
		Format: strings.ToLower(req.Format),
		Scale:  req.Scale,
	})

	data, err := c.cachedBytes(ctx, key, "images", cache.TTLImages, req.Refresh, func() ([]byte, error) {
		return c.getBytes(ctx, u)
	})
	if err != nil {
		return nil, err
	}

	var resp imagesResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, errors.Wrap(errors.ErrCodeAssetFetch, err, "decode render response")
	}
	if resp.Err != "" {
		return nil, errors.New(errors.ErrCodeAssetFetch, "image render failed: %s", resp.Err)
	}

	out := make(map[string]string, len(resp.Images))
	for id, imageURL := range resp.Images {
		if imageURL != nil && *imageURL != "" {
			out[id] = *imageURL
		}
	}
	return out, nil
}

// imageFillsResponse is the wire shape of the fill source map endpoint.
type imageFillsResponse struct {
	Meta struct {
		Images map[string]string `json:"images"`
	} `json:"meta"`
}

// ImageFills returns the file's map from image fill references to
// source URLs. Documents exported with an embedded imageMap never need
// this call.
func (c *Client) ImageFills(ctx context.Context, fileKey string, refresh bool) (map[string]string, error) {
	if err := errors.ValidateFileKey(fileKey); err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/v1/files/%s/images", c.baseURL, fileKey)
	key := c.keyer.HTTPKey("figma:", "fills/"+fileKey)

	data, err := c.cachedBytes(ctx, key, "fills", cache.TTLImages, refresh, func() ([]byte, error) {
		return c.getBytes(ctx, u)
	})
	if err != nil {
		return nil, err
	}

	var resp imageFillsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, errors.Wrap(errors.ErrCodeAssetFetch, err, "decode fill map response")
	}
	return resp.Meta.Images, nil
}
