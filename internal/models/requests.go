package models

const (
	srosQemuOptions  = "-machine type=pc,accel=kvm -serial mon:stdio -nographic -no-user-config -nodefaults -rtc base=utc"
	linuxQemuOptions = "-machine type=pc,accel=kvm -vga virtio -usbdevice tablet -boot order=cd"
)

// LoginRequest is posted to /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	HTML5    string `json:"html5"`
}

func NewLoginRequest(username, password string) LoginRequest {
	return LoginRequest{
		Username: username,
		Password: password,
		HTML5:    "-1",
	}
}

type LabRequest struct {
	Author        string `json:"author"`
	Description   string `json:"description"`
	ScriptTimeout int    `json:"scripttimeout"`
	Version       int    `json:"version"`
	Name          string `json:"name"`
	Body          string `json:"body"`
	Path          string `json:"path"`
}

func NewLabRequest(name, path, description string) LabRequest {
	return LabRequest{
		Description:   description,
		ScriptTimeout: 300,
		Version:       1,
		Name:          name,
		Path:          path,
	}
}

// NodeRequest is the body for POST /api/labs/{lab}.unl/nodes. EVE-NG takes
// almost every field as a string.
type NodeRequest struct {
	Template          string `json:"template"`
	Type              string `json:"type"`
	Count             string `json:"count"`
	Image             string `json:"image"`
	Name              string `json:"name"`
	Icon              string `json:"icon"`
	UUID              string `json:"uuid"`
	CPULimit          string `json:"cpulimit"`
	CPU               string `json:"cpu"`
	RAM               string `json:"ram"`
	Ethernet          string `json:"ethernet"`
	FirstMac          string `json:"firstmac,omitempty"`
	ManagementAddress string `json:"management_address,omitempty"`
	TimosLine         string `json:"timos_line,omitempty"`
	TimosLicense      string `json:"timos_license,omitempty"`
	QemuVersion       string `json:"qemu_version"`
	QemuArch          string `json:"qemu_arch"`
	QemuNic           string `json:"qemu_nic"`
	QemuOptions       string `json:"qemu_options"`
	ROQemuOptions     string `json:"ro_qemu_options"`
	Config            string `json:"config"`
	Delay             string `json:"delay"`
	Console           string `json:"console"`
	Left              string `json:"left"`
	Top               string `json:"top"`
	Postfix           int    `json:"postfix"`
}

func baseQemuNode(template, image, name, icon string) NodeRequest {
	return NodeRequest{
		Template: template,
		Type:     "qemu",
		Count:    "1",
		Image:    image,
		Name:     name,
		Icon:     icon,
		CPULimit: "undefined",
		Config:   "0",
		Delay:    "0",
	}
}

// SROSCPMNode describes a Nokia SR OS control plane (CPM) card.
type SROSCPMNode struct {
	Image             string `mapstructure:"image" validate:"required"`
	Name              string `mapstructure:"name" validate:"required"`
	ManagementAddress string `mapstructure:"management_address"`
	TimosLine         string `mapstructure:"timos_line"`
	TimosLicense      string `mapstructure:"timos_license"`
	Left              string `mapstructure:"left"`
	Top               string `mapstructure:"top"`
}

func (n SROSCPMNode) Request() NodeRequest {
	req := baseQemuNode("timoscpm", n.Image, n.Name, "SROS.png")
	req.CPU = "1"
	req.RAM = "2048"
	req.Ethernet = "2"
	req.ManagementAddress = n.ManagementAddress
	req.TimosLine = n.TimosLine
	req.TimosLicense = n.TimosLicense
	req.QemuOptions = srosQemuOptions
	req.ROQemuOptions = srosQemuOptions
	req.Console = "telnet"
	req.Left = n.Left
	req.Top = n.Top
	return req
}

// SROSIOMNode describes a Nokia SR OS line card (IOM).
type SROSIOMNode struct {
	Image     string `mapstructure:"image" validate:"required"`
	Name      string `mapstructure:"name" validate:"required"`
	TimosLine string `mapstructure:"timos_line"`
	Left      string `mapstructure:"left"`
	Top       string `mapstructure:"top"`
}

func (n SROSIOMNode) Request() NodeRequest {
	req := baseQemuNode("timosiom", n.Image, n.Name, "SROS linecard.png")
	req.CPU = "1"
	req.RAM = "2048"
	req.Ethernet = "10"
	req.TimosLine = n.TimosLine
	req.QemuOptions = srosQemuOptions
	req.ROQemuOptions = srosQemuOptions
	req.Console = "telnet"
	req.Left = n.Left
	req.Top = n.Top
	return req
}

type LinuxNode struct {
	Image string `mapstructure:"image" validate:"required"`
	Name  string `mapstructure:"name" validate:"required"`
	CPU   string `mapstructure:"cpu"`
	RAM   string `mapstructure:"ram"`
	Left  string `mapstructure:"left"`
	Top   string `mapstructure:"top"`
}

func (n LinuxNode) Request() NodeRequest {
	req := baseQemuNode("linux", n.Image, n.Name, "Server.png")
	req.CPU = n.CPU
	req.RAM = n.RAM
	req.Ethernet = "2"
	req.QemuOptions = linuxQemuOptions
	req.ROQemuOptions = linuxQemuOptions
	req.Console = "vnc"
	req.Left = n.Left
	req.Top = n.Top
	return req
}

type NetworkRequest struct {
	Count      string `json:"count"`
	Visibility string `json:"visibility"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Left       string `json:"left"`
	Top        string `json:"top"`
	Postfix    int    `json:"postfix"`
}

func NewNetworkRequest(name, networkType, left, top string) NetworkRequest {
	return NetworkRequest{
		Count:      "1",
		Visibility: "1",
		Name:       name,
		Type:       networkType,
		Left:       left,
		Top:        top,
	}
}

// VisibilityRequest hides or shows a network in the lab designer.
type VisibilityRequest struct {
	Visibility string `json:"visibility"`
}
