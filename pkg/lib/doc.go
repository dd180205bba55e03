// Package lib provides a Go SDK for the asynchronous task protocol of the high
// throughput products API.
//
// Expensive product reads are deferred by the backend: a submission returns a
// task ID right away and the result is pushed later on a per task channel.
// This package submits the reads, correlates them with their task and
// delivers the outcome, without shelling out to the htpctl CLI binary.
//
// # Quick Start
//
// Create a client and run a deferred read, Query blocks until the task is
// resolved:
//
//	client, err := lib.New(lib.Config{
//	    APIBaseURL:  "http://localhost:8080/api/products/async",
//	    AdminAPIURL: "http://localhost:8080/api/admin/worker",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	out, err := client.Query(ctx, lib.PagedProducts(0, 10), nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if out.Status == lib.TaskStatusRejected {
//	    // The backend was overloaded, try again later.
//	}
//
// # Submit and subscribe
//
// The two protocol steps can also be driven independently. A client owns at
// most one active subscription, subscribing to a new task cancels the previous
// one before the new channel is opened:
//
//	taskID, _ := client.Submit(ctx, lib.SearchProducts("lamp"))
//	sub := client.Subscribe(ctx, taskID, lib.Callbacks{
//	    OnProcessed: func(r lib.Result) { fmt.Println(len(r.Products)) },
//	    OnRejected:  func() { fmt.Println("rejected") },
//	    OnError:     func(err error) { fmt.Println(err) },
//	})
//	<-sub.Done()
//
// Exactly one callback is called per subscription, none after it is
// cancelled.
//
// # Worker stats
//
// [Client.Stats] gets a single snapshot, [Client.WatchStats] keeps refreshing
// it at the configured polling interval until the context is done.
//
// # Error Handling
//
// All methods return errors that can be inspected with [errors.Is]:
//
//   - [ErrNotFound]: The task does not exist or has expired.
//   - [ErrNotValid]: Invalid input (e.g. a negative page).
//   - [ErrTransportFailure]: Network errors and non success responses.
//   - [ErrProtocolViolation]: Unexpected or incomplete payloads.
//   - [ErrTimeout]: The query timeout expired before the task was resolved.
//
// # Thread Safety
//
// A [Client] is safe for concurrent use from multiple goroutines.
package lib
