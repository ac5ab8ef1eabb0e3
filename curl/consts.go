package curl

import "fmt"

// Option identifies a per-transfer option. The thousands digit encodes the
// native value shape: 0 = long, 10000 = object pointer, 20000 = function
// pointer, 30000 = off_t.
type Option int

const (
	OptTimeout         Option = 13
	OptInfileSize      Option = 14
	OptVerbose         Option = 41
	OptHeader          Option = 42
	OptNoProgress      Option = 43
	OptNoBody          Option = 44
	OptUpload          Option = 46
	OptPost            Option = 47
	OptFollowLocation  Option = 52
	OptProxyPort       Option = 59
	OptPostFieldSize   Option = 60
	OptHTTPProxyTunnel Option = 61
	OptSSLVerifyPeer   Option = 64
	OptMaxRedirs       Option = 68
	OptConnectTimeout  Option = 78
	OptSSLVerifyHost   Option = 81
	OptHTTPVersion     Option = 84
	OptBufferSize      Option = 98
	OptNoSignal        Option = 99
	OptTimeoutMS       Option = 155
	OptConnectTimeoutMS Option = 156
	OptTCPKeepAlive    Option = 213

	OptWriteData     Option = 10001
	OptURL           Option = 10002
	OptProxy         Option = 10004
	OptProxyUserPwd  Option = 10006
	OptReadData      Option = 10009
	OptErrorBuffer   Option = 10010
	OptPostFields    Option = 10015
	OptReferer       Option = 10016
	OptUserAgent     Option = 10018
	OptCookie        Option = 10022
	OptHTTPHeader    Option = 10023
	OptHeaderData    Option = 10029
	OptCookieFile    Option = 10031
	OptCustomRequest Option = 10036
	OptXferInfoData  Option = 10057
	OptInterface     Option = 10062
	OptCAInfo        Option = 10065
	OptCookieJar     Option = 10082
	OptSSLCipherList Option = 10083
	OptAcceptEncoding Option = 10102
	OptPrivate       Option = 10103
	OptCopyPostFields Option = 10165
	OptCookieList    Option = 10172
	OptResolve       Option = 10203

	OptWriteFunction    Option = 20011
	OptReadFunction     Option = 20012
	OptHeaderFunction   Option = 20079
	OptXferInfoFunction Option = 20219

	OptInfileSizeLarge    Option = 30115
	OptPostFieldSizeLarge Option = 30120
)

// optionNames backs Option.String for diagnostics on rejected options.
var optionNames = map[Option]string{
	OptTimeout: "TIMEOUT", OptInfileSize: "INFILESIZE", OptVerbose: "VERBOSE",
	OptHeader: "HEADER", OptNoProgress: "NOPROGRESS", OptNoBody: "NOBODY",
	OptUpload: "UPLOAD", OptPost: "POST", OptFollowLocation: "FOLLOWLOCATION",
	OptProxyPort: "PROXYPORT", OptPostFieldSize: "POSTFIELDSIZE",
	OptHTTPProxyTunnel: "HTTPPROXYTUNNEL", OptSSLVerifyPeer: "SSL_VERIFYPEER",
	OptMaxRedirs: "MAXREDIRS", OptConnectTimeout: "CONNECTTIMEOUT",
	OptSSLVerifyHost: "SSL_VERIFYHOST", OptHTTPVersion: "HTTP_VERSION",
	OptBufferSize: "BUFFERSIZE", OptNoSignal: "NOSIGNAL",
	OptTimeoutMS: "TIMEOUT_MS", OptConnectTimeoutMS: "CONNECTTIMEOUT_MS",
	OptTCPKeepAlive: "TCP_KEEPALIVE", OptWriteData: "WRITEDATA", OptURL: "URL",
	OptProxy: "PROXY", OptProxyUserPwd: "PROXYUSERPWD", OptReadData: "READDATA",
	OptErrorBuffer: "ERRORBUFFER", OptPostFields: "POSTFIELDS",
	OptReferer: "REFERER", OptUserAgent: "USERAGENT", OptCookie: "COOKIE",
	OptHTTPHeader: "HTTPHEADER", OptHeaderData: "HEADERDATA",
	OptCookieFile: "COOKIEFILE", OptCustomRequest: "CUSTOMREQUEST",
	OptSSLCipherList: "SSL_CIPHER_LIST",
	OptXferInfoData: "XFERINFODATA", OptInterface: "INTERFACE",
	OptCAInfo: "CAINFO", OptCookieJar: "COOKIEJAR",
	OptAcceptEncoding: "ACCEPT_ENCODING", OptPrivate: "PRIVATE",
	OptCopyPostFields: "COPYPOSTFIELDS", OptCookieList: "COOKIELIST",
	OptResolve: "RESOLVE", OptWriteFunction: "WRITEFUNCTION",
	OptReadFunction: "READFUNCTION", OptHeaderFunction: "HEADERFUNCTION",
	OptXferInfoFunction: "XFERINFOFUNCTION",
	OptInfileSizeLarge:  "INFILESIZE_LARGE", OptPostFieldSizeLarge: "POSTFIELDSIZE_LARGE",
}

func (o Option) String() string {
	if name, ok := optionNames[o]; ok {
		return "CURLOPT_" + name
	}
	return fmt.Sprintf("CURLOPT(%d)", int(o))
}

// Info identifies a post-transfer info field. The high bits carry the
// decode type: string, long, double, list, socket or off_t.
type Info int

const (
	infoTypeMask   Info = 0xf00000
	InfoTypeString Info = 0x100000
	InfoTypeLong   Info = 0x200000
	InfoTypeDouble Info = 0x300000
	InfoTypeSList  Info = 0x400000
	InfoTypeSocket Info = 0x500000
	InfoTypeOffT   Info = 0x600000
)

const (
	InfoEffectiveURL      Info = InfoTypeString + 1
	InfoResponseCode      Info = InfoTypeLong + 2
	InfoTotalTime         Info = InfoTypeDouble + 3
	InfoNameLookupTime    Info = InfoTypeDouble + 4
	InfoConnectTime       Info = InfoTypeDouble + 5
	InfoPreTransferTime   Info = InfoTypeDouble + 6
	InfoStartTransferTime Info = InfoTypeDouble + 17
	InfoContentType       Info = InfoTypeString + 18
	InfoRedirectTime      Info = InfoTypeDouble + 19
	InfoRedirectCount     Info = InfoTypeLong + 20
	InfoHTTPConnectCode   Info = InfoTypeLong + 22
	InfoNumConnects       Info = InfoTypeLong + 26
	InfoRedirectURL       Info = InfoTypeString + 31
	InfoPrimaryIP         Info = InfoTypeString + 32
	InfoAppConnectTime    Info = InfoTypeDouble + 33
	InfoPrimaryPort       Info = InfoTypeLong + 40
	InfoLocalIP           Info = InfoTypeString + 41
	InfoLocalPort         Info = InfoTypeLong + 42
	InfoHTTPVersion       Info = InfoTypeLong + 46
	InfoScheme            Info = InfoTypeString + 49
	InfoSizeDownload      Info = InfoTypeOffT + 8
	InfoSpeedDownload     Info = InfoTypeOffT + 9
)

// Code is a native per-transfer result code. Zero means success.
type Code int

const (
	CodeOK                     Code = 0
	CodeUnsupportedProtocol    Code = 1
	CodeFailedInit             Code = 2
	CodeURLMalformat           Code = 3
	CodeCouldntResolveProxy    Code = 5
	CodeCouldntResolveHost     Code = 6
	CodeCouldntConnect         Code = 7
	CodeHTTPReturnedError      Code = 22
	CodeWriteError             Code = 23
	CodeReadError              Code = 26
	CodeOutOfMemory            Code = 27
	CodeOperationTimedout      Code = 28
	CodeSSLConnectError        Code = 35
	CodeAbortedByCallback      Code = 42
	CodeTooManyRedirects       Code = 47
	CodeGotNothing             Code = 52
	CodeSendError              Code = 55
	CodeRecvError              Code = 56
	CodePeerFailedVerification Code = 60
)

// MultiCode is a native multi-engine result code. Zero means success.
type MultiCode int

const (
	MultiOK            MultiCode = 0
	MultiBadHandle     MultiCode = 1
	MultiBadEasyHandle MultiCode = 2
	MultiOutOfMemory   MultiCode = 3
	MultiInternalError MultiCode = 4
	MultiBadSocket     MultiCode = 5
	MultiUnknownOption MultiCode = 6
	MultiAddedAlready  MultiCode = 7
)

// MultiOption identifies an engine-wide option on a Multi.
type MultiOption int

const (
	MultiOptPipelining          MultiOption = 3
	MultiOptMaxConnects         MultiOption = 6
	MultiOptMaxHostConnections  MultiOption = 7
	MultiOptMaxTotalConnections MultiOption = 13
	MultiOptSocketData          MultiOption = 10002
	MultiOptTimerData           MultiOption = 10005
	MultiOptSocketFunction      MultiOption = 20001
	MultiOptTimerFunction       MultiOption = 20004
)

var multiOptionNames = map[MultiOption]string{
	MultiOptPipelining:          "PIPELINING",
	MultiOptMaxConnects:         "MAXCONNECTS",
	MultiOptMaxHostConnections:  "MAX_HOST_CONNECTIONS",
	MultiOptMaxTotalConnections: "MAX_TOTAL_CONNECTIONS",
	MultiOptSocketData:          "SOCKETDATA",
	MultiOptTimerData:           "TIMERDATA",
	MultiOptSocketFunction:      "SOCKETFUNCTION",
	MultiOptTimerFunction:       "TIMERFUNCTION",
}

func (o MultiOption) String() string {
	if name, ok := multiOptionNames[o]; ok {
		return "CURLMOPT_" + name
	}
	return fmt.Sprintf("CURLMOPT(%d)", int(o))
}

// HTTP version values for OptHTTPVersion.
const (
	HTTPVersionNone Code = 0
	HTTPVersion1_1  Code = 2
	HTTPVersion2TLS Code = 4
	HTTPVersion3    Code = 30
)

const (
	// msgDone is the only completion-message kind the drain loop acts on.
	msgDone = 1

	// globalDefault enables both SSL and Win32 subsystems in the native
	// global init.
	globalDefault = 3
)
