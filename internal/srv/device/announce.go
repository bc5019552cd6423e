package device

import (
	"github.com/grandcat/zeroconf"
	"github.com/jypelle/heatbox/internal/version"
	"github.com/sirupsen/logrus"
)

const (
	ServiceType   = "_heatbox._tcp"
	ServiceDomain = "local."
)

// Announcer advertises the https api over mDNS.
type Announcer struct {
	instance   string
	port       int
	simulation bool

	server *zeroconf.Server
}

func NewAnnouncer(instance string, port int64, simulation bool) *Announcer {
	return &Announcer{instance: instance, port: int(port), simulation: simulation}
}

// TxtRecords describes the service to browsers.
func (d *Announcer) TxtRecords() []string {
	txt := []string{"version=" + version.AppVersion.String(), "scheme=https", "path=/api"}
	if d.simulation {
		txt = append(txt, "simulation=true")
	}
	return txt
}

// Start registers the service. A failure is logged, the appliance runs without it.
func (d *Announcer) Start() {
	logrus.Infof("Start mdns announcer")

	server, err := zeroconf.Register(d.instance, ServiceType, ServiceDomain, d.port, d.TxtRecords(), nil)
	if err != nil {
		logrus.Warnf("Unable to announce %s over mdns: %v", ServiceType, err)
		return
	}
	d.server = server
}

func (d *Announcer) Stop() {
	logrus.Infof("Stop mdns announcer")
	if d.server != nil {
		d.server.Shutdown()
		d.server = nil
	}
}
