package model

import "time"

// NextStreak は最終練習日と現在時刻から新しいストリーク値を算出する。
// 比較は日単位（時刻成分は無視）で行う:
//   - 最終練習日がnil（初回練習）なら1
//   - 同日なら現在値を維持
//   - 前日なら現在値+1
//   - 2日以上空いた場合、および時計逆行で日差が負になった場合は1にリセット
func NextStreak(lastPractice *time.Time, now time.Time, current int) int {
	if lastPractice == nil {
		return 1
	}

	today := truncateToDay(now)
	lastDay := truncateToDay(lastPractice.In(now.Location()))

	diffDays := int(today.Sub(lastDay).Hours() / 24)

	switch diffDays {
	case 0:
		return current
	case 1:
		return current + 1
	default:
		return 1
	}
}

// NextLongestStreak は新しいストリーク値を反映した最長ストリークを返す。
// longestStreak >= streak の不変条件を維持する。
func NextLongestStreak(newStreak, longest int) int {
	if newStreak > longest {
		return newStreak
	}
	return longest
}

// truncateToDay は時刻を同一ロケーションの0時0分に切り詰める。
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
