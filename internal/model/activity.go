package model

import "time"

// DefaultActivityCapacity はcapacity未指定時の定員。
const DefaultActivityCapacity = 10

// Activity は予約対象となるアクティビティを表す。
// Date は YYYY-MM-DD、Time は HH:MM (24時間表記) の文字列で保持する。
type Activity struct {
	ID          string
	Title       string
	Description string
	Location    string
	Date        string
	Time        string
	Capacity    int
	CreatedBy   *string // 作成ユーザー削除後は nil
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ActivityPatch はアクティビティの部分更新内容を表す。
// nil のフィールドは変更しない。
type ActivityPatch struct {
	Title       *string
	Description *string
	Location    *string
	Date        *string
	Time        *string
	Capacity    *int
}

// Apply はパッチの非nilフィールドを a に反映する。
func (p ActivityPatch) Apply(a *Activity) {
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.Location != nil {
		a.Location = *p.Location
	}
	if p.Date != nil {
		a.Date = *p.Date
	}
	if p.Time != nil {
		a.Time = *p.Time
	}
	if p.Capacity != nil {
		a.Capacity = *p.Capacity
	}
}
