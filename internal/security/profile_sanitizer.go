// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ProfileSanitizerService はユーザー入力のプロフィール文字列をサニタイズし、
// XSS攻撃などのセキュリティリスクからユーザーを保護する。
// bluemondayライブラリのStrictPolicyを使用し、HTMLタグを一切許可しない。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ProfileSanitizerService はプロフィール文字列のサニタイズ機能のインターフェースを定義する。
// 表示名の保存前に使用される。
type ProfileSanitizerService interface {
	// SanitizeDisplayName は表示名からHTMLタグを全て除去し、前後の空白をトリムして返す。
	// プロフィール文字列はプレーンテキストとして扱うため、タグは一切許可しない。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeDisplayName(raw string) string
}

// profileSanitizer はProfileSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type profileSanitizer struct {
	policy *bluemonday.Policy
}

// NewProfileSanitizer はProfileSanitizerServiceの新しいインスタンスを生成する。
// bluemondayのStrictPolicy（許可タグなし）を使用する。
// script, img, aを含む全てのタグとon*イベント属性が除去される。
func NewProfileSanitizer() *profileSanitizer {
	return &profileSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// SanitizeDisplayName は表示名からHTMLタグを全て除去して返す。
// bluemondayはタグ除去後の残存テキストをHTMLエスケープするため、
// プレーンテキストとして保存できるようアンエスケープする。
func (s *profileSanitizer) SanitizeDisplayName(raw string) string {
	cleaned := s.policy.Sanitize(raw)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}
