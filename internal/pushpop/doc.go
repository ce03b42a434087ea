// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Package pushpop implements the push/pop state machine of the bot.

Every mention addressed to the bot is sanitized, classified into a [Command],
turned into a [Plan] of remote operations by a [Planner], executed in order
by an [Executor] and finally applied to the stack. The [Runner] drives one
batch: it derives the stack from the bot's own timeline, fetches mentions
newer than the watermark and processes them oldest first, persisting the
watermark after each one.

Local state only changes on confirmed remote results. A pop replies to the
popping mention before deleting the popped post, and the stack only loses the
item when the delete succeeded.
*/
package pushpop
