package tools

import (
	"fmt"
	"strings"

	"github.com/voicebank/gateway/internal/resolve"
)

func errResult(msg string) map[string]any {
	return map[string]any{"status": "error", "message": msg}
}

// strArg fetches a non-empty string argument.
func strArg(args map[string]any, key string) (string, bool) {
	v, ok := args[key].(string)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// floatArg fetches a numeric argument. JSON numbers decode as float64, but
// some engines quote them.
func floatArg(args map[string]any, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		var f float64
		if _, err := fmt.Sscanf(v, "%g", &f); err == nil {
			return f, true
		}
	}
	return 0, false
}

func intArg(args map[string]any, key string, def int) int {
	if f, ok := floatArg(args, key); ok && f > 0 {
		return int(f)
	}
	return def
}

func formatAmount(amount float64, currency string) string {
	return fmt.Sprintf("%.2f %s", amount, currency)
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func optionMaps(options []resolve.BillerOption) []map[string]any {
	out := make([]map[string]any, len(options))
	for i, o := range options {
		out[i] = map[string]any{"biller_id": o.ID, "biller_nickname": o.Nickname}
	}
	return out
}
