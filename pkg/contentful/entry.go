package contentful

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Topic はContentfulのWebhookトピックを表す。
type Topic string

// TopicEntryPublish はエントリーが公開されたことを表す。
const TopicEntryPublish Topic = "ContentManagement.Entry.publish"

// TopicHeader はWebhookトピックが格納されるHTTPヘッダー。
const TopicHeader = "X-Contentful-Topic"

// DefaultLocale は既定のロケール。
const DefaultLocale = "en-US"

// ErrFieldNotFound はフィールドまたはロケールの値が存在しないことを表す。
var ErrFieldNotFound = errors.New("フィールドが存在しません")

// Sys はエントリーのシステムメタデータ。
type Sys struct {
	// ID はエントリーの識別子。
	ID string `json:"id"`
	// Type はリソースの種類（Entry, DeletedEntry など）。
	Type string `json:"type"`
	// Revision は公開リビジョン番号。初回公開時は1になる。
	Revision int `json:"revision"`
}

// LocalizedField はロケールごとの値を持つフィールド。
type LocalizedField map[string]json.RawMessage

// Entry はWebhookで送られてくるエントリー。
type Entry struct {
	// Sys はシステムメタデータ。
	Sys Sys `json:"sys"`
	// Fields はフィールド名ごとの値。
	Fields map[string]LocalizedField `json:"fields"`
}

// Decode はWebhookのリクエストボディをエントリーにデシリアライズする。
func Decode(r io.Reader) (*Entry, error) {
	var e Entry
	if err := json.NewDecoder(r).Decode(&e); err != nil {
		return nil, fmt.Errorf("エントリーのデシリアライズに失敗: %w", err)
	}
	return &e, nil
}

// DecodeField はエントリーのフィールド値を指定されたロケールで指定された型にデシリアライズする。
func DecodeField[T any](e *Entry, name, locale string) (T, error) {
	var v T
	raw, ok := e.Fields[name][locale]
	if !ok {
		return v, fmt.Errorf("%w: %s[%s]", ErrFieldNotFound, name, locale)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("フィールド %s のデシリアライズに失敗: %w", name, err)
	}
	return v, nil
}
