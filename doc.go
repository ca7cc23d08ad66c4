// Package usa implements the real-time acquisition core for ultrasonic
// sonic anemometers: serial line decoding, hourly raw file rotation, a
// circular sample buffer, multi-window eddy-covariance statistics, and
// Lagrangian particle dispersion/footprint engines.
//
// Sub-packages host the individual components: decode (line decoder),
// rawfile (hourly writer), ring (circular sample buffer), stats
// (statistics engine), particle (forward plume and backward footprint
// engines), dispatch (child process dispatcher), status (status
// publisher), supervisor (the acquisition control loop), config
// (configuration loading) and archive (optional columnar archival).
package usa
