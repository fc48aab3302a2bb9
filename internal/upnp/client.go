// Package upnp implements the SOAP requests used to control Raumfeld
// renderers and the media server: AVTransport, RenderingControl and
// ContentDirectory.
package upnp

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	urnAVTransport      = "urn:schemas-upnp-org:service:AVTransport:1"
	urnRenderingControl = "urn:schemas-upnp-org:service:RenderingControl:1"
	urnContentDirectory = "urn:schemas-upnp-org:service:ContentDirectory:1"
)

// Client issues SOAP actions against devices addressed by the location URL
// of their description document. Control URLs are resolved from the
// description once and cached per location.
type Client struct {
	HTTP *http.Client

	mu       sync.Mutex
	controls map[string]map[string]string // location -> serviceType -> control URL
}

func NewClient() *Client {
	return &Client{
		HTTP: &http.Client{Timeout: 10 * time.Second},
	}
}

type soapEnvelope struct {
	XMLName xml.Name `xml:"s:Envelope"`
	XMLNS   string   `xml:"xmlns:s,attr"`
	Style   string   `xml:"s:encodingStyle,attr"`
	Body    soapBody `xml:"s:Body"`
}

type soapBody struct {
	Inner []byte `xml:",innerxml"`
}

func buildEnvelope(service, action string, args map[string]string) ([]byte, error) {
	var b bytes.Buffer
	b.WriteString(`<u:` + action + ` xmlns:u="` + service + `">`)
	for name, value := range args {
		var v bytes.Buffer
		if err := xml.EscapeText(&v, []byte(value)); err != nil {
			return nil, err
		}
		b.WriteString("<" + name + ">" + v.String() + "</" + name + ">")
	}
	b.WriteString(`</u:` + action + `>`)

	env := soapEnvelope{
		XMLNS: "http://schemas.xmlsoap.org/soap/envelope/",
		Style: "http://schemas.xmlsoap.org/soap/encoding/",
		Body:  soapBody{Inner: b.Bytes()},
	}
	out, err := xml.Marshal(env)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

// soapCall performs one SOAP action against the device behind location and
// returns the response arguments as a flat map.
func (c *Client) soapCall(ctx context.Context, location, service, action string, args map[string]string) (map[string]string, error) {
	controlURL, err := c.controlURL(ctx, location, service)
	if err != nil {
		return nil, err
	}
	payload, err := buildEnvelope(service, action, args)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, controlURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", `text/xml; charset="utf-8"`)
	req.Header.Set("SOAPACTION", `"`+service+`#`+action+`"`)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if code := parseFaultCode(body); code != "" {
			return nil, fmt.Errorf("%s failed: UPnP error %s", action, code)
		}
		return nil, fmt.Errorf("%s failed: %s", action, resp.Status)
	}
	return parseActionResponse(body, action)
}

// parseActionResponse extracts the argument elements of
// <u:{action}Response> into a map.
func parseActionResponse(body []byte, action string) (map[string]string, error) {
	out := map[string]string{}
	dec := xml.NewDecoder(bytes.NewReader(body))
	inResponse := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s response: %w", action, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == action+"Response" {
				inResponse = true
				continue
			}
			if !inResponse {
				continue
			}
			var val string
			if err := dec.DecodeElement(&val, &t); err != nil {
				return nil, fmt.Errorf("parse %s response: %w", action, err)
			}
			out[t.Name.Local] = val
		case xml.EndElement:
			if t.Name.Local == action+"Response" {
				inResponse = false
			}
		}
	}
}

func parseFaultCode(body []byte) string {
	var fault struct {
		Code string `xml:"Body>Fault>detail>UPnPError>errorCode"`
	}
	if err := xml.Unmarshal(body, &fault); err != nil {
		return ""
	}
	return fault.Code
}

// Device description document, only the parts needed to locate control
// URLs. Embedded devices are searched as well.
type deviceDescription struct {
	XMLName xml.Name        `xml:"root"`
	Device  describedDevice `xml:"device"`
}

type describedDevice struct {
	Services []describedService `xml:"serviceList>service"`
	Devices  []describedDevice  `xml:"deviceList>device"`
}

type describedService struct {
	Type       string `xml:"serviceType"`
	ControlURL string `xml:"controlURL"`
}

func collectServices(d describedDevice, into map[string]string) {
	for _, svc := range d.Services {
		if _, ok := into[svc.Type]; !ok {
			into[svc.Type] = svc.ControlURL
		}
	}
	for _, child := range d.Devices {
		collectServices(child, into)
	}
}

func (c *Client) controlURL(ctx context.Context, location, service string) (string, error) {
	c.mu.Lock()
	if c.controls == nil {
		c.controls = map[string]map[string]string{}
	}
	services, ok := c.controls[location]
	c.mu.Unlock()

	if !ok {
		fetched, err := c.fetchDescription(ctx, location)
		if err != nil {
			return "", err
		}
		c.mu.Lock()
		c.controls[location] = fetched
		c.mu.Unlock()
		services = fetched
	}

	controlPath, ok := services[service]
	if !ok {
		return "", fmt.Errorf("device %s does not offer %s", location, service)
	}
	base, err := url.Parse(location)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(controlPath)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}

func (c *Client) fetchDescription(ctx context.Context, location string) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch device description: %s", resp.Status)
	}
	var desc deviceDescription
	if err := xml.NewDecoder(resp.Body).Decode(&desc); err != nil {
		return nil, fmt.Errorf("parse device description: %w", err)
	}
	services := map[string]string{}
	collectServices(desc.Device, services)
	if len(services) == 0 {
		return nil, fmt.Errorf("device description %s lists no services", location)
	}
	return services, nil
}

// InvalidateDescription drops the cached control URLs for location, e.g.
// after the device directory replaced the device.
func (c *Client) InvalidateDescription(location string) {
	c.mu.Lock()
	delete(c.controls, location)
	c.mu.Unlock()
}

func boolToUPnP(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func upnpToBool(s string) bool {
	s = strings.TrimSpace(s)
	return s == "1" || strings.EqualFold(s, "true")
}
