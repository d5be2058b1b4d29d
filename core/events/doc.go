// Package events defines the typed interview session event contract.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - session.*
//   - question.*
//   - capture.*
//   - playback.*
//   - timer.*
//
// Semantics used across the package:
//
//   - Updated: mutable point-in-time snapshot that can change over time.
//   - Segment: append-only text piece emitted in occurrence order.
//   - Notice: user facing message without control-flow effect.
//
// session events
//
//   - SessionStarted (session.started): the remote side issued a session id.
//   - SessionStateChanged (session.state_changed): the controller moved
//     between two states.
//   - SessionFailed (session.failed): an operation failed and the session
//     stayed in place, so the user may retry.
//   - SessionReportReady (session.report_ready): the final report arrived.
//   - SessionCompleted (session.completed): the session reached its terminal
//     state; includes the completion reason.
//
// question events
//
//   - QuestionReceived (question.received): a new question replaced the
//     previous one.
//   - TranscriptAppended (question.transcript_appended): an entry was added
//     to the session transcript.
//
// capture events
//
//   - CaptureStarted (capture.started): a recognition stream opened.
//   - CaptureStopped (capture.stopped): listening stopped on request.
//   - CaptureAnswerUpdated (capture.answer_updated): mutable snapshot of the
//     current answer, accumulated finals plus interim.
//   - CaptureSegment (capture.segment): finalized, append-only text segment.
//   - CaptureDegraded (capture.degraded): voice input is disabled and only
//     typed answers are accepted.
//   - CaptureNotice (capture.notice): informational capture message.
//
// playback events
//
//   - PlaybackStarted (playback.started): an utterance began speaking.
//   - PlaybackEnded (playback.ended): an utterance finished, failed or was
//     cancelled.
//
// timer events
//
//   - TimerTicked (timer.ticked): one second passed.
//   - TimerThresholdCrossed (timer.threshold_crossed): presentation hint for
//     the warning and danger levels, emitted once each.
//   - TimerExpired (timer.expired): the budget ran out, emitted once.
package events
