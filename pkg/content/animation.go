package content

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// Pose is a decomposed transform.
type Pose struct {
	Translation mgl32.Vec3
	Orientation mgl32.Quat
	Scale       mgl32.Vec3
}

// Mat4 composes the pose as scale, then rotation, then translation.
func (p Pose) Mat4() mgl32.Mat4 {
	s := mgl32.Scale3D(p.Scale[0], p.Scale[1], p.Scale[2])
	r := p.Orientation.Normalize().Mat4()
	t := mgl32.Translate3D(p.Translation[0], p.Translation[1], p.Translation[2])
	return t.Mul4(r).Mul4(s)
}

// Keyframe is a pose at a point in time, in seconds.
type Keyframe struct {
	Time float32
	Pose Pose
}

// AnimationChannel is the keyframed motion of an animated level part.
// Keyframes are stored in file order, which is ascending by time.
type AnimationChannel struct {
	Keyframes []Keyframe
}

// Sample returns the pose at time t, clamping outside the keyframe range
// and interpolating between the surrounding keyframes otherwise.
func (c *AnimationChannel) Sample(t float32) (Pose, bool) {
	frames := c.Keyframes
	if len(frames) == 0 {
		return Pose{}, false
	}
	if t <= frames[0].Time {
		return frames[0].Pose, true
	}
	last := len(frames) - 1
	if t >= frames[last].Time {
		return frames[last].Pose, true
	}

	i := sort.Search(len(frames), func(i int) bool { return frames[i].Time > t })
	a, b := frames[i-1], frames[i]
	span := b.Time - a.Time
	if span <= 0 {
		return b.Pose, true
	}
	f := (t - a.Time) / span
	return Pose{
		Translation: lerpVec3(a.Pose.Translation, b.Pose.Translation, f),
		Orientation: mgl32.QuatNlerp(a.Pose.Orientation, b.Pose.Orientation, f),
		Scale:       lerpVec3(a.Pose.Scale, b.Pose.Scale, f),
	}, true
}

func lerpVec3(a, b mgl32.Vec3, f float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(f))
}

func readAnimationChannel(d *decoder) AnimationChannel {
	n := d.count("keyframe count")
	c := AnimationChannel{Keyframes: make([]Keyframe, 0, d.sized(n, 44))}
	for i := 0; i < n && d.err == nil; i++ {
		c.Keyframes = append(c.Keyframes, Keyframe{
			Time: d.f32("keyframe time"),
			Pose: Pose{
				Translation: d.vec3("translation"),
				Orientation: d.quat("orientation"),
				Scale:       d.vec3("scale"),
			},
		})
	}
	return c
}
