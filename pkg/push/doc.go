// Package push turns application events into device push notifications.
//
// The package is transport-agnostic: concrete transports live in the apns and
// fcm subpackages and plug in through the Provider interface and a Registry
// built once at process start. Persistence is reached through the
// DeviceStore, PreferenceStore and LogWriter ports; MemoryStore implements
// them for development and tests, pgstore and redisstore for production.
//
// # Architecture
//
// A Dispatcher runs one user through a fixed pipeline:
//
//   - PreferenceGate: opt-in flag and category filter, one preference read, no other I/O
//   - TokenSelector: the user's most recently updated registration ("last device wins")
//   - Provider: the transport registered for the device platform
//   - Classify: maps the provider error to permanent-invalid-token, transient,
//     config-error or unsupported-platform
//   - eviction of the exact (user, token) row on a permanent verdict
//   - one LogEntry per successful send
//
// DispatchToUsers and DispatchToAllEligible fan out over that pipeline with a
// bounded worker pool and aggregate the results.
//
// # Basic Usage
//
//	store := push.NewMemoryStore()
//	providers := push.NewRegistry().
//	    Register(push.PlatformIOS, apnsProvider).
//	    Register(push.PlatformAndroid, fcmProvider)
//
//	d := push.NewDispatcher(store, store, store, providers,
//	    push.WithLogger(log),
//	    push.WithConcurrency(8),
//	)
//
//	res := d.DispatchToUser(ctx, userID, push.EventApprovedPayload(eventID, title))
//	if !res.Success {
//	    // res.Errors explains why; the triggering action should still succeed
//	}
//
// # Delivery semantics
//
// Nothing is retried and nothing is queued durably: a transient failure is
// reported in Result.Errors and left to the caller. Only the newest device of
// a user receives pushes; older registrations are kept and become the target
// once the newer one is evicted.
package push
