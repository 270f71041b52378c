package shadowpay

import (
	"context"
	"reflect"
	"runtime"

	"github.com/shopspring/decimal"
)

// RequirePayment wraps fn so that invoking the returned function first
// pays amount SOL through the given bot, then runs fn. A payment failure
// short-circuits: fn is never executed and the typed payment error is
// returned. An empty resource defaults to the wrapped function's name.
//
// The bot is always an explicit parameter; there is no ambient or global
// bot to configure.
func RequirePayment[T any](bot *PaymentBot, amount decimal.Decimal, resource string, fn func(context.Context) (T, error)) func(context.Context) (T, error) {
	name := functionName(fn)
	if resource == "" {
		resource = "/" + name
	}

	return func(ctx context.Context) (T, error) {
		var zero T

		bot.logger.Info("making payment for function", "function", name, "amount_sol", amount)
		txHash, err := bot.Pay(ctx, amount, resource, map[string]any{"function": name})
		if err != nil {
			bot.logger.Error("payment failed for function", "function", name, "error", err)
			return zero, err
		}
		bot.logger.Info("payment successful", "function", name, "tx_hash", txHash)

		return fn(ctx)
	}
}

// TrackSpending wraps fn and logs how much the bot spent while it ran,
// sampling the settler's spent-today before and after.
func TrackSpending[T any](bot *PaymentBot, fn func(context.Context) (T, error)) func(context.Context) (T, error) {
	name := functionName(fn)

	return func(ctx context.Context) (T, error) {
		before, err := bot.SpendingToday(ctx)
		if err != nil {
			bot.logger.Warn("could not get initial spending", "error", err)
			before = decimal.Zero
		}

		out, fnErr := fn(ctx)

		after, err := bot.SpendingToday(ctx)
		if err != nil {
			bot.logger.Warn("could not get final spending", "error", err)
			return out, fnErr
		}
		bot.logger.Info("function spending",
			"function", name,
			"spent_sol", after.Sub(before),
			"total_today_sol", after)

		return out, fnErr
	}
}

func functionName(fn any) string {
	if f := runtime.FuncForPC(reflect.ValueOf(fn).Pointer()); f != nil {
		return f.Name()
	}
	return "unknown"
}
