// Package push runs subscription driven orchestration. Trigger creates one
// PUSH job per active subscription and enqueues its id; Worker consumes the
// queue, replays the stored orchestration request and hands the result to
// the notification dispatcher.
package push
