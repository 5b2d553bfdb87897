package memory

import (
	"github.com/tinoosan/wealth/internal/service/analytics"
	"github.com/tinoosan/wealth/internal/service/holding"
	"github.com/tinoosan/wealth/internal/service/networth"
	"github.com/tinoosan/wealth/internal/service/transaction"
	"github.com/tinoosan/wealth/internal/service/user"
)

// Compile-time interface assertions documenting which interfaces Store satisfies.
var (
	_ networth.Repo      = (*Store)(nil)
	_ networth.Writer    = (*Store)(nil)
	_ analytics.Repo     = (*Store)(nil)
	_ transaction.Repo   = (*Store)(nil)
	_ transaction.Writer = (*Store)(nil)
	_ holding.Repo       = (*Store)(nil)
	_ holding.Writer     = (*Store)(nil)
	_ user.Repo          = (*Store)(nil)
	_ user.Writer        = (*Store)(nil)
)
