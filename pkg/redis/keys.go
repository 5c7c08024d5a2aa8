package redis

import "strings"

// Every key lives under pdv: so a shared instance can be flushed per app.
const keyNamespace = "pdv"

func key(parts ...string) string {
	var b strings.Builder
	b.WriteString(keyNamespace)
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			b.WriteByte(':')
			b.WriteString(p)
		}
	}
	return b.String()
}

func (c *Client) IdempotencyKey(scope, id string) string { return key("idempotency", scope, id) }

func (c *Client) RateLimitKey(scope string) string { return key("rate_limit", scope) }

// CartKey holds a register's serialized cart session.
func (c *Client) CartKey(registerID string) string { return key("cart", registerID) }

// CheckoutLockKey is the single-flight flag for a register's checkout.
func (c *Client) CheckoutLockKey(registerID string) string {
	return key("checkout", "lock", registerID)
}

// CheckoutStateKey remembers a register's last checkout outcome.
func (c *Client) CheckoutStateKey(registerID string) string {
	return key("checkout", "state", registerID)
}

func (c *Client) ImageURLKey(productID string) string { return key("image", productID) }

// SessionKey marks an issued access token as live until logout or expiry.
func (c *Client) SessionKey(accessID string) string { return key("session", accessID) }

// JobLockKey serializes a housekeeping worker across instances.
func (c *Client) JobLockKey(worker string) string { return key("job_lock", worker) }
