/*
Package looper contains the playback core of loopdeck: a multitrack looper
that keeps several audio tracks and a metronome click in sync with a single
transport, and the control layer that maps keys and MIDI messages to user
actions.

The Model holds the whole state: the transport (stopped, playing or paused,
and the play position), the tracks, the mixer settings, the click and the
control bindings. It is not safe for concurrent use; an Engine owns it and
runs every operation, input event and tick of the playback event loop on one
goroutine.

Audio is produced by the Renderer, which runs in the audio thread. The Model
never touches audio buffers; it talks to the renderer through the Graph
interface, whose methods post messages through the Broker. The renderer
counts the frames it has rendered, and that count is the audio clock used to
schedule click pulses.

Control inputs are normalized into loopdeck.Signals by the Router. In control
edit mode, the next signal is bound to the selected Action; otherwise the
first Action bound to the signal is performed. Bindings and mixer settings
are persisted through a Store after every change.
*/
package looper
