package campaign

// DefaultPerSenderCap is the maximum number of recipients one sender account
// may address in a single campaign. Sending infrastructure throttles
// per-account throughput, so fan-out across accounts is the backpressure
// strategy.
const DefaultPerSenderCap = 400

// RequiredSenders computes how many distinct sender accounts a list needs.
// A list of size 0 — or an unknown size, passed as a negative value — still
// requires one sender, so the send path is never disabled while the list
// size has not been determined.
func RequiredSenders(listSize, perSenderCap int) int {
	if perSenderCap <= 0 {
		perSenderCap = DefaultPerSenderCap
	}
	if listSize <= 0 {
		return 1
	}
	return (listSize + perSenderCap - 1) / perSenderCap
}
