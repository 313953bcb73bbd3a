package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"arfs-go/internal/arfs"
)

// BuildQuery renders a transactions query. Unpaginated queries request a
// single best match and omit pagination fields.
func BuildQuery(q arfs.Query) string {
	var b strings.Builder

	b.WriteString("query {\n  transactions(\n")
	if len(q.IDs) > 0 {
		ids := make([]string, len(q.IDs))
		for i, id := range q.IDs {
			ids[i] = quote(string(id))
		}
		fmt.Fprintf(&b, "    ids: [%s]\n", strings.Join(ids, ", "))
	}

	if q.Paginated {
		fmt.Fprintf(&b, "    first: %d\n", arfs.PageSize)
		fmt.Fprintf(&b, "    after: %s\n", quote(q.Cursor))
	} else {
		b.WriteString("    first: 1\n")
	}

	sort := q.Sort
	if sort == "" {
		sort = arfs.SortHeightDesc
	}
	fmt.Fprintf(&b, "    sort: %s\n", sort)

	if q.Owner != "" {
		fmt.Fprintf(&b, "    owners: [%s]\n", quote(string(q.Owner)))
	}

	b.WriteString("    tags: [")
	for i, t := range q.Tags {
		if i > 0 {
			b.WriteString(",")
		}
		values := make([]string, len(t.Values))
		for j, v := range t.Values {
			values[j] = quote(v)
		}
		fmt.Fprintf(&b, "\n      { name: %s, values: [%s] }", quote(t.Name), strings.Join(values, ", "))
	}
	if len(q.Tags) > 0 {
		b.WriteString("\n    ")
	}
	b.WriteString("]\n  ) {\n")

	if q.Paginated {
		b.WriteString("    pageInfo {\n      hasNextPage\n    }\n")
	}
	b.WriteString("    edges {\n")
	if q.Paginated {
		b.WriteString("      cursor\n")
	}
	b.WriteString(`      node {
        id
        tags {
          name
          value
        }
        owner {
          address
        }
        block {
          height
          timestamp
        }
      }
    }
  }
}`)
	return b.String()
}

// quote renders s as a GraphQL string literal. JSON string escaping is a
// subset of GraphQL's.
func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

type gqlResponse struct {
	Data *struct {
		Transactions arfs.Page `json:"transactions"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Query posts a transactions query to the gateway's GraphQL endpoint.
func (c *Client) Query(ctx context.Context, q arfs.Query) (*arfs.Page, error) {
	payload, err := json.Marshal(map[string]string{"query": BuildQuery(q)})
	if err != nil {
		return nil, fmt.Errorf("GQL Error: encoding query: %w", err)
	}

	body, err := c.do(ctx, request{
		method:      http.MethodPost,
		url:         c.endpoint("graphql"),
		body:        payload,
		contentType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("GQL Error: %w", err)
	}

	var resp gqlResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("GQL Error: decoding response: %w", err)
	}
	if resp.Data == nil {
		if len(resp.Errors) > 0 {
			return nil, fmt.Errorf("GQL Error: %s", resp.Errors[0].Message)
		}
		return nil, fmt.Errorf("GQL Error: response has no data")
	}

	page := resp.Data.Transactions
	return &page, nil
}
