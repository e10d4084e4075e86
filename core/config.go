package core

import "sync/atomic"

// ChannelConfig is the last applied configuration of a timer channel.
// Value is in the channel's wire unit, never in ticks.
type ChannelConfig struct {
	Value uint16
	Flags uint8
}

// ConfigStore holds the last applied configuration per channel.
// Each entry is packed into a single 32-bit word so value and flags are
// always read together.
type ConfigStore struct {
	entries [2]uint32 // atomic: value<<8 | flags
}

// Load returns the configuration of a channel.
func (s *ConfigStore) Load(ch Channel) ChannelConfig {
	w := atomic.LoadUint32(&s.entries[ch&1])
	return ChannelConfig{
		Value: uint16(w >> 8),
		Flags: uint8(w),
	}
}

// Store records the configuration of a channel.
func (s *ConfigStore) Store(ch Channel, cfg ChannelConfig) {
	atomic.StoreUint32(&s.entries[ch&1], uint32(cfg.Value)<<8|uint32(cfg.Flags))
}
