package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/hedera-chat-agent/server/internal/oracle"
)

// NormalizeArguments sanitizes model-produced tool arguments before the tool
// decodes them. It never fails; unparseable input is passed through.
func NormalizeArguments(_ context.Context, name, arguments string) (string, error) {
	var m map[string]any
	if err := json.Unmarshal([]byte(arguments), &m); err != nil {
		// keep original if not JSON
		return arguments, nil
	}

	switch name {
	case ToolGetHbarBalance, ToolGetAccountInfo:
		trimString(m, "account_id")
		// some models use accountId
		if _, ok := m["account_id"]; !ok {
			if v, ok := m["accountId"]; ok {
				m["account_id"] = v
				delete(m, "accountId")
				trimString(m, "account_id")
			}
		}
	case ToolTransferHbar:
		trimString(m, "to")
		if v, ok := m["amount"]; ok {
			switch vv := v.(type) {
			case float64:
			case string:
				s := strings.TrimSpace(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(vv)), "hbar"))
				if f, err := strconv.ParseFloat(s, 64); err == nil {
					m["amount"] = f
				} else {
					delete(m, "amount")
				}
			default:
				delete(m, "amount")
			}
		}
	case ToolCreateTopic:
		trimString(m, "memo")
	case ToolSubmitTopicMessage:
		trimString(m, "topic_id")
	case ToolGetPriceFeed:
		trimString(m, "pair")
		if s, ok := m["pair"].(string); ok {
			m["pair"] = normalizePair(s)
		}
	}

	b, err := json.Marshal(m)
	if err != nil {
		// fallback to original
		return arguments, nil
	}
	return string(b), nil
}

// trimString trims m[key], coercing non-string scalars to strings.
func trimString(m map[string]any, key string) {
	v, ok := m[key]
	if !ok {
		return
	}
	switch vv := v.(type) {
	case string:
		m[key] = strings.TrimSpace(vv)
	case nil:
		delete(m, key)
	default:
		m[key] = strings.TrimSpace(fmt.Sprint(vv))
	}
}

// normalizePair turns "btc", "BTC-USD" or "btc / usd" into "BTC/USD".
func normalizePair(s string) string {
	p := oracle.NormalizePair(strings.ReplaceAll(s, "-", "/"))
	if p != "" && !strings.Contains(p, "/") {
		p += "/USD"
	}
	return p
}
