package model

import (
	"go.uber.org/zap"

	"github.com/Faultbox/animodel/pkg/formats"
)

// DecodeBehaviour maps a raw behaviour tag to an Extrapolation.
func DecodeBehaviour(b formats.Behaviour) Extrapolation {
	switch b {
	case formats.BehaviourDefault:
		return ExtrapolationDefault
	case formats.BehaviourConstant:
		return ExtrapolationConstant
	case formats.BehaviourLinear:
		return ExtrapolationLinear
	case formats.BehaviourRepeat:
		return ExtrapolationRepeat
	}
	return ExtrapolationInvalid
}

func (b *builder) addClips(anims []formats.Animation) {
	for i := range anims {
		b.m.Clips = append(b.m.Clips, Clip{
			Name:           anims[i].Name,
			Duration:       anims[i].Duration,
			TicksPerSecond: anims[i].TicksPerSecond,
		})
	}
}

// addTracks converts every channel and binds it by exact name to each node
// carrying that name. Channels for unknown nodes are dropped.
func (b *builder) addTracks(anims []formats.Animation) {
	for ci := range anims {
		for chi := range anims[ci].Channels {
			ch := &anims[ci].Channels[chi]

			nodes := b.m.NodesNamed(ch.NodeName)
			if len(nodes) == 0 {
				b.diagAt(zap.DebugLevel, StageTracks, ch.NodeName, "clip %q animates unknown node, channel dropped", anims[ci].Name)
				continue
			}

			ti := len(b.m.Tracks)
			b.m.Tracks = append(b.m.Tracks, convertChannel(ci, ch))

			for _, n := range nodes {
				slot := &b.m.Nodes[n].Tracks[ci]
				if *slot != NoTrack {
					b.diag(StageTracks, ch.NodeName, "clip %q animates node twice, last channel wins", anims[ci].Name)
				}
				*slot = ti
			}
		}
	}
}

func convertChannel(clip int, ch *formats.Channel) Track {
	t := Track{
		Clip: clip,
		Node: ch.NodeName,
		Pre:  DecodeBehaviour(ch.PreState),
		Post: DecodeBehaviour(ch.PostState),
	}
	if len(ch.PositionKeys) > 0 {
		t.Positions = make([]VectorKey, len(ch.PositionKeys))
		for i, k := range ch.PositionKeys {
			t.Positions[i] = VectorKey{Time: k.Time, Value: k.Value}
		}
	}
	if len(ch.RotationKeys) > 0 {
		t.Rotations = make([]QuatKey, len(ch.RotationKeys))
		for i, k := range ch.RotationKeys {
			t.Rotations[i] = QuatKey{Time: k.Time, Value: k.Value}
		}
	}
	if len(ch.ScalingKeys) > 0 {
		t.Scales = make([]VectorKey, len(ch.ScalingKeys))
		for i, k := range ch.ScalingKeys {
			t.Scales[i] = VectorKey{Time: k.Time, Value: k.Value}
		}
	}
	return t
}

// TrackFor returns the track animating node in clip, or nil.
func (m *Model) TrackFor(node, clip int) *Track {
	if clip < 0 || node < 0 || node >= len(m.Nodes) || clip >= len(m.Nodes[node].Tracks) {
		return nil
	}
	ti := m.Nodes[node].Tracks[clip]
	if ti == NoTrack {
		return nil
	}
	return &m.Tracks[ti]
}
