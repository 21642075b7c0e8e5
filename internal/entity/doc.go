// Package entity is the host side of the integration: the entity registry,
// service dispatch and the config entry lifecycle.
//
// Platforms (such as package fan) build Entity values during a config entry's
// Setup and hand them to a Host in one batch. The HTTP API reads entity state
// and forwards user actions through Host.Call, which checks the entity's
// supported features before dispatching.
//
//	entry := entity.NewConfigEntry("gw-1", "Living room gateway", cfg.Host, cfg.Serial)
//	err := entry.Setup(ctx, func(ctx context.Context, e *entity.ConfigEntry) error {
//	    _, err := fan.Setup(ctx, fan.SetupParams{Entry: e, Host: host, ...})
//	    return err
//	})
package entity
