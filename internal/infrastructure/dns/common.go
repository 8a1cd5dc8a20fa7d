package dns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/alibabacloud-go/tea/tea"
	"github.com/aws/smithy-go"
	"github.com/cloudflare/cloudflare-go/v2"
	tcerrors "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/errors"

	"github.com/lite-lake/dnssync/internal/domain"
)

func ParseSRVValue(value string) (priority, weight, port float64, target string) {
	parts := strings.Fields(value)
	if len(parts) >= 4 {
		priority, _ = strconv.ParseFloat(parts[0], 64)
		weight, _ = strconv.ParseFloat(parts[1], 64)
		port, _ = strconv.ParseFloat(parts[2], 64)
		target = parts[3]
	}
	return
}

// SplitPriority separates the leading priority of canonical MX content
// ("10 mail.example.com"). Content without one gets priority 10.
func SplitPriority(content string) (int, string) {
	head, rest, ok := strings.Cut(strings.TrimSpace(content), " ")
	if !ok {
		return 10, content
	}
	p, err := strconv.Atoi(head)
	if err != nil {
		return 10, content
	}
	return p, strings.TrimSpace(rest)
}

func intPtr(v int) *int { return &v }

// Vendor error codes, matched by prefix. Auth codes come first so that
// "AuthFailure.SignatureExpire" is never read as anything else.
var codeClasses = []struct {
	prefix string
	class  error
}{
	{"AuthFailure", domain.ErrProviderAuth},
	{"InvalidAccessKeyId", domain.ErrProviderAuth},
	{"SignatureDoesNotMatch", domain.ErrProviderAuth},
	{"Forbidden", domain.ErrProviderAuth},
	{"AccessDenied", domain.ErrProviderAuth},
	{"InvalidClientTokenId", domain.ErrProviderAuth},
	{"ExpiredToken", domain.ErrProviderAuth},
	{"UnrecognizedClient", domain.ErrProviderAuth},
	{"Throttling", domain.ErrProviderRateLimit},
	{"RequestLimitExceeded", domain.ErrProviderRateLimit},
	{"PriorRequestNotComplete", domain.ErrProviderRateLimit},
	{"InternalError", domain.ErrProviderUnavailable},
	{"InternalFailure", domain.ErrProviderUnavailable},
	{"ServiceUnavailable", domain.ErrProviderUnavailable},
	{"ResourceUnavailable", domain.ErrProviderUnavailable},
	{"InvalidDomainName.NoExist", domain.ErrDNSDomainNotFound},
	{"InvalidParameterValue.DomainNotExists", domain.ErrDNSDomainNotFound},
	{"NoSuchHostedZone", domain.ErrDNSDomainNotFound},
}

var messageClasses = []struct {
	pattern string
	class   error
}{
	{"unauthorized", domain.ErrProviderAuth},
	{"authentication", domain.ErrProviderAuth},
	{"invalid api token", domain.ErrProviderAuth},
	{"rate limit", domain.ErrProviderRateLimit},
	{"too many requests", domain.ErrProviderRateLimit},
	{"timeout", domain.ErrProviderUnavailable},
	{"connection reset", domain.ErrProviderUnavailable},
	{"connection refused", domain.ErrProviderUnavailable},
	{"temporary failure", domain.ErrProviderUnavailable},
	{"service unavailable", domain.ErrProviderUnavailable},
	{"internal server error", domain.ErrProviderUnavailable},
	{"bad gateway", domain.ErrProviderUnavailable},
	{"gateway timeout", domain.ErrProviderUnavailable},
}

func classForStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return domain.ErrProviderAuth
	case status == http.StatusTooManyRequests:
		return domain.ErrProviderRateLimit
	case status >= http.StatusInternalServerError:
		return domain.ErrProviderUnavailable
	}
	return nil
}

func classForCode(code string) error {
	for _, c := range codeClasses {
		if strings.HasPrefix(code, c.prefix) {
			return c.class
		}
	}
	return nil
}

func classify(err error) error {
	var cfErr *cloudflare.Error
	if errors.As(err, &cfErr) {
		if class := classForStatus(cfErr.StatusCode); class != nil {
			return class
		}
	}

	var teaErr *tea.SDKError
	if errors.As(err, &teaErr) {
		if class := classForCode(tea.StringValue(teaErr.Code)); class != nil {
			return class
		}
		if class := classForStatus(tea.IntValue(teaErr.StatusCode)); class != nil {
			return class
		}
	}

	var tcErr *tcerrors.TencentCloudSDKError
	if errors.As(err, &tcErr) {
		if class := classForCode(tcErr.GetCode()); class != nil {
			return class
		}
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if class := classForCode(apiErr.ErrorCode()); class != nil {
			return class
		}
	}

	var statusErr interface{ HTTPStatusCode() int }
	if errors.As(err, &statusErr) {
		if class := classForStatus(statusErr.HTTPStatusCode()); class != nil {
			return class
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.ErrProviderUnavailable
	}

	msg := strings.ToLower(err.Error())
	for _, m := range messageClasses {
		if strings.Contains(msg, m.pattern) {
			return m.class
		}
	}
	return nil
}

// ClassifyError maps a vendor SDK error onto the provider error taxonomy and
// wraps it with op. The original error stays reachable through errors.As.
func ClassifyError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domain.WrapOp(op, err)
	}
	if class := classify(err); class != nil && !errors.Is(err, class) {
		return fmt.Errorf("%s: %w: %w", op, class, err)
	}
	return domain.WrapOp(op, err)
}

// zoneCache remembers vendor zone ids for the lifetime of one provider.
type zoneCache struct {
	mu  sync.Mutex
	ids map[string]string
}

func (c *zoneCache) get(zone string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.ids[zone]
	return id, ok
}

func (c *zoneCache) put(zone, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ids == nil {
		c.ids = make(map[string]string)
	}
	c.ids[zone] = id
}
