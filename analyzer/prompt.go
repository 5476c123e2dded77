package analyzer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/raushankrgupta/fish-scout/models"
	log "github.com/sirupsen/logrus"
)

var validate = validator.New()

const promptTemplate = `任务：从以下闲鱼商品数据中，识别出高性价比的商品（评分 > 8分）。
排除：商家/经销商发布的商品。
输出格式：JSON数组，每个商品包含 title（标题）、price（价格）、reason（推荐理由）、score（评分1-10）。

商品数据：
%s

请只返回JSON数组，不要其他文字说明。`

// BuildPrompt renders the scoring prompt for listings
func BuildPrompt(listings []models.Listing) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.Encode(listings)
	return fmt.Sprintf(promptTemplate, strings.TrimSpace(buf.String()))
}

// ParseRecommendations decodes the model's answer. Code fences and prose
// around the array are ignored, as is a single wrapping object.
func ParseRecommendations(text string) ([]models.Recommendation, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyResponse
	}

	raw, err := findArray(text)
	if err != nil {
		return nil, err
	}

	var items []map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadResponse, err)
	}

	recs := make([]models.Recommendation, 0, len(items))
	for _, item := range items {
		rec := models.Recommendation{
			Title:  strings.TrimSpace(stringField(item["title"])),
			Price:  strings.TrimLeft(stringField(item["price"]), "¥￥ "),
			Reason: stringField(item["reason"]),
		}
		rec.Score, _ = strconv.ParseFloat(stringField(item["score"]), 64)
		if err := validate.Struct(rec); err != nil {
			log.Debugf("[ANALYZE] dropping recommendation %q: %v", rec.Title, err)
			continue
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// stringField renders a decoded JSON scalar, numbers included, as text
func stringField(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

func findArray(text string) ([]byte, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start >= 0 && end > start {
		return []byte(text[start : end+1]), nil
	}

	// {"items": [...]} style answers
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &obj); err == nil {
		for _, v := range obj {
			if trimmed := bytes.TrimSpace(v); len(trimmed) > 0 && trimmed[0] == '[' {
				return trimmed, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: no JSON array in %q", ErrBadResponse, truncate(text, 80))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
