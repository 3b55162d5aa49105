package handler

import (
	"database/sql"

	"github.com/hitoshi/meetx/internal/activity"
	"github.com/hitoshi/meetx/internal/auth"
	"github.com/hitoshi/meetx/internal/booking"
	"github.com/hitoshi/meetx/internal/user"
)

// ドメインサービスはハンドラーのインターフェースをそのまま満たすため、
// アダプタを挟まずにRouterDepsへ渡せる。

// --- compile-time interface checks ---

var _ AuthServiceInterface = (*auth.Service)(nil)
var _ UserServiceInterface = (*user.Service)(nil)
var _ ActivityServiceInterface = (*activity.Service)(nil)
var _ BookingServiceInterface = (*booking.Ledger)(nil)
var _ Pinger = (*sql.DB)(nil)
