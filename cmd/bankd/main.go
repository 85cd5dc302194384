// Command bankd serves a demo bank whose behavior is wired entirely from
// effects.toml.
package main

import (
	"github.com/joeydtaylor/steeze-effects/pkg/actions"
	"github.com/joeydtaylor/steeze-effects/pkg/codec"
	"github.com/joeydtaylor/steeze-effects/pkg/middleware/logger"
	"github.com/joeydtaylor/steeze-effects/pkg/registry"
	"github.com/joeydtaylor/steeze-effects/pkg/relay"
	"github.com/joeydtaylor/steeze-effects/pkg/serverfx"
	"go.uber.org/fx"
)

func register() {
	actions.MustRegisterType[Deposit](actions.Default, "Deposit", codec.JSONStrict)
	actions.MustRegisterType[Withdraw](actions.Default, "Withdraw", codec.JSONStrict)
	actions.MustRegisterType[Transfer](actions.Default, "Transfer", codec.JSONStrict)
	actions.MustRegisterType[Overdrawn](actions.Default, "Overdrawn", codec.JSON)

	relay.EnableRelayType[Transfer]("Transfer")
	relay.EnableRelayType[Overdrawn]("Overdrawn")

	log := logger.NewLog("bank.log")
	registry.Default.RegisterHost("ledger", NewLedger())
	registry.Default.RegisterHost("notifier", &Notifier{Log: log})
	registry.Default.RegisterFunc("audit.transfer", auditTransfer(log))
}

func main() {
	register()
	fx.New(
		serverfx.Module(
			serverfx.WithService("bankd"),
			serverfx.WithManifestEnv("BANKD_MANIFEST"),
			serverfx.WithDefaultManifest("cmd/bankd/effects.toml"),
		),
	).Run()
}
