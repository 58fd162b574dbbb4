// Package sidecar implements the schema document that accompanies every
// point-cloud data file.
//
// A sidecar records the storage format, the declared point count, the
// ordered attribute list, an optional centering transform, an optional
// compression and an optional explicit data-file name. It is stored as a
// small XML document next to the data file:
//
//	<LidarData>
//	  <Attributes DataFormat="binary" DataSize="3" DataFileName="cloud.bin">
//	    <Attribute Name="x" DataType="float64" Min="0" Max="10"/>
//	    <Attribute Name="intensity" DataType="uint16"/>
//	    <CenteringTransfo tx="650000" ty="6860000"/>
//	  </Attributes>
//	</LidarData>
//
// Parsing is tolerant: unknown elements and attributes are ignored and no
// schema validation happens. Structural problems (malformed XML, unknown
// tokens, duplicate attribute names) are reported as [ErrParse].
package sidecar
